package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"office-portal/internal/auth"
	"office-portal/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxAttempts  = 10
	retryBackoff = 2 * time.Second
)

// dialector выбирает драйвер по DSN: sqlite:// и file: — встроенная sqlite,
// всё остальное — postgres.
func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// Open подключается к БД с повторами (postgres в docker поднимается не сразу)
// и прогоняет миграции.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", maxAttempts))

		db, err = gorm.Open(dialector(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			break
		}

		log.Warn("failed to connect to database", zap.Error(err))
		time.Sleep(retryBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("connected to database")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.EmployeeProfile{},
		&models.Organization{},
		&models.Vehicle{},
		&models.OutsourceCompany{},
		&models.OutsourceEmployee{},
		&models.OrgTech{},
		&models.SolarSite{},
		&models.SolarReading{},
		&models.Contract{},
		&models.Task{},
		&models.IjroTask{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type SeedUser struct {
	Username string
	Password string
	Role     models.UserRole
}

// DemoUsers: учётки для демо-стенда (SEED_DEMO_USERS=true).
var DemoUsers = []SeedUser{
	{Username: "manager", Password: "manager123", Role: models.RoleManager},
	{Username: "employee", Password: "employee123", Role: models.RoleEmployee},
}

// EnsureAdmin создаёт администратора, если в базе нет ни одного.
func EnsureAdmin(db *gorm.DB, log *zap.Logger, username, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := createUser(db, SeedUser{Username: username, Password: password, Role: models.RoleAdmin}); err != nil {
		return err
	}
	log.Info("created default admin user", zap.String("username", username))
	return nil
}

// SeedUsers добавляет недостающих пользователей; существующие не трогает.
func SeedUsers(db *gorm.DB, log *zap.Logger, users []SeedUser) {
	for _, u := range users {
		var existing models.User
		err := db.Where("username = ?", u.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("failed to check seed user", zap.String("username", u.Username), zap.Error(err))
			continue
		}
		if err := createUser(db, u); err != nil {
			log.Warn("failed to create seed user", zap.String("username", u.Username), zap.Error(err))
			continue
		}
		log.Info("created seed user", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	}
}

func createUser(db *gorm.DB, u SeedUser) error {
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return err
	}
	user := models.User{Username: u.Username, PasswordHash: hash, Role: u.Role}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}
