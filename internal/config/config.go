package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	DBDSN         string
	ServerPort    string
	SessionSecret string
	SessionMaxAge int // секунды

	UploadDir     string
	TemplatesGlob string

	RedisAddr        string
	LoginMaxAttempts int // 0 отключает
	LoginWindow      time.Duration

	TelegramBotToken string

	AdminUsername string
	AdminPassword string
	SeedDemoUsers bool
}

// Load читает .env (если есть) и переменные окружения. envFiles задают явные
// файлы вместо ./.env.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Env:              get("APP_ENV", "production"),
		DBDSN:            get("DB_DSN", ""),
		ServerPort:       get("SERVER_PORT", "8080"),
		SessionSecret:    get("SESSION_SECRET", ""),
		UploadDir:        get("UPLOAD_DIR", "uploads"),
		TemplatesGlob:    get("TEMPLATES_GLOB", "web/templates/*.html"),
		RedisAddr:        get("REDIS_ADDR", ""),
		TelegramBotToken: get("TELEGRAM_BOT_TOKEN", ""),
		AdminUsername:    get("ADMIN_USERNAME", "admin"),
		AdminPassword:    get("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}

	var err error
	if cfg.SessionMaxAge, err = strconv.Atoi(get("SESSION_MAX_AGE", "86400")); err != nil || cfg.SessionMaxAge <= 0 {
		return nil, fmt.Errorf("SESSION_MAX_AGE must be a positive number of seconds")
	}
	if cfg.LoginMaxAttempts, err = strconv.Atoi(get("LOGIN_MAX_ATTEMPTS", "5")); err != nil || cfg.LoginMaxAttempts < 0 {
		return nil, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be a non-negative number")
	}
	if cfg.LoginWindow, err = time.ParseDuration(get("LOGIN_WINDOW", "15m")); err != nil || cfg.LoginWindow <= 0 {
		return nil, fmt.Errorf("LOGIN_WINDOW must be a positive duration")
	}
	if cfg.SeedDemoUsers, err = strconv.ParseBool(get("SEED_DEMO_USERS", "false")); err != nil {
		return nil, fmt.Errorf("SEED_DEMO_USERS: %w", err)
	}

	return cfg, nil
}

func (c *Config) Development() bool {
	return c.Env == "development"
}
