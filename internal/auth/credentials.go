// Package auth хранит учётные данные и проверяет логин.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"office-portal/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Principal — аутентифицированный пользователь текущего запроса.
type Principal struct {
	UserID   uint
	Username string
	Role     models.UserRole
}

func (p Principal) HasRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type Authenticator struct {
	db      *gorm.DB
	limiter Limiter
}

// NewAuthenticator: при limiter == nil попытки не ограничены.
func NewAuthenticator(db *gorm.DB, limiter Limiter) *Authenticator {
	if limiter == nil {
		limiter = NoLimit{}
	}
	return &Authenticator{db: db, limiter: limiter}
}

// Authenticate проверяет пару логин/пароль. Отсутствие пользователя и неверный
// пароль неразличимы для вызывающего: оба дают ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	key := strings.ToLower(username)

	ok, err := a.limiter.Allow(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("login limiter: %w", err)
	}
	if !ok {
		return nil, ErrTooManyAttempts
	}

	var user models.User
	err = a.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if ferr := a.limiter.Fail(ctx, key); ferr != nil {
			return nil, fmt.Errorf("login limiter: %w", ferr)
		}
		return nil, ErrInvalidCredentials
	}

	if err := a.limiter.Reset(ctx, key); err != nil {
		return nil, fmt.Errorf("login limiter: %w", err)
	}
	return &user, nil
}
