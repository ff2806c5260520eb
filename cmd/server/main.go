package main

import (
	"context"
	"fmt"
	"log"

	"office-portal/internal/appcontext"
	"office-portal/internal/auth"
	"office-portal/internal/config"
	"office-portal/internal/dashboard"
	"office-portal/internal/database"
	"office-portal/internal/logging"
	"office-portal/internal/notify"
	"office-portal/internal/server"
	"office-portal/internal/storage"
	"office-portal/internal/workflow"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		envFile  = pflag.String("env-file", "", "load environment from this file instead of ./.env")
		port     = pflag.String("port", "", "listen port (overrides SERVER_PORT)")
		seedDemo = pflag.Bool("seed-demo", false, "create demo manager/employee accounts")
	)
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port != "" {
		cfg.ServerPort = *port
	}
	if *seedDemo {
		cfg.SeedDemoUsers = true
	}

	logger, err := logging.New(cfg.Development())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, cleanup, err := build(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	r := server.NewRouter(app)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// build собирает зависимости обработчиков.
func build(cfg *config.Config, logger *zap.Logger) (*appcontext.Context, func(), error) {
	db, err := database.Open(cfg.DBDSN, logger)
	if err != nil {
		return nil, nil, err
	}
	var closers []func() error
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	if err := database.EnsureAdmin(db, logger, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		cleanup()
		return nil, nil, err
	}
	if cfg.SeedDemoUsers {
		database.SeedUsers(db, logger, database.DemoUsers)
	}

	uploads, err := storage.NewUploads(cfg.UploadDir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var limiter auth.Limiter = auth.NoLimit{}
	if cfg.LoginMaxAttempts > 0 {
		if cfg.RedisAddr != "" {
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			if err := client.Ping(context.Background()).Err(); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("redis ping: %w", err)
			}
			closers = append(closers, client.Close)
			limiter = auth.NewRedisLimiter(client, cfg.LoginMaxAttempts, cfg.LoginWindow)
		} else {
			limiter = auth.NewMemoryLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow)
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, logger)
		if err != nil {
			// портал работает и без уведомлений
			logger.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	app := &appcontext.Context{
		Config:    cfg,
		DB:        db,
		Logger:    logger,
		Auth:      auth.NewAuthenticator(db, limiter),
		Uploads:   uploads,
		Workflow:  workflow.NewService(db, notifier, logger),
		Dashboard: dashboard.New(db),
	}
	return app, cleanup, nil
}
