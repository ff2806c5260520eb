package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"office-portal/internal/auth"
	"office-portal/internal/database/dbtest"
	"office-portal/internal/models"

	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, username, password string, role models.UserRole) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func TestAuthenticate(t *testing.T) {
	db := dbtest.Open(t)
	want := createUser(t, db, "manager", "manager123", models.RoleManager)
	a := auth.NewAuthenticator(db, nil)
	ctx := context.Background()

	got, err := a.Authenticate(ctx, "manager", "manager123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != want.ID || got.Role != models.RoleManager {
		t.Errorf("got user %d role %s, want %d manager", got.ID, got.Role, want.ID)
	}

	cases := []struct{ username, password string }{
		{"manager", "wrong"},
		{"manager", ""},
		{"nobody", "manager123"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := a.Authenticate(ctx, tc.username, tc.password); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q) err = %v, want ErrInvalidCredentials", tc.username, tc.password, err)
		}
	}
}

func TestPasswordIsNeverStoredInPlaintext(t *testing.T) {
	db := dbtest.Open(t)
	createUser(t, db, "admin", "admin123", models.RoleAdmin)

	var u models.User
	if err := db.Where("username = ?", "admin").First(&u).Error; err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "admin123" || u.PasswordHash == "" {
		t.Errorf("password hash = %q", u.PasswordHash)
	}
}

func TestAuthenticateLockout(t *testing.T) {
	db := dbtest.Open(t)
	createUser(t, db, "employee", "employee123", models.RoleEmployee)
	a := auth.NewAuthenticator(db, auth.NewMemoryLimiter(3, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := a.Authenticate(ctx, "employee", "bad"); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v", i+1, err)
		}
	}
	// правильный пароль тоже отвергается, пока окно не истекло
	if _, err := a.Authenticate(ctx, "Employee", "employee123"); !errors.Is(err, auth.ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", err)
	}
}

func TestSuccessResetsFailures(t *testing.T) {
	db := dbtest.Open(t)
	createUser(t, db, "employee", "employee123", models.RoleEmployee)
	a := auth.NewAuthenticator(db, auth.NewMemoryLimiter(2, time.Minute))
	ctx := context.Background()

	_, _ = a.Authenticate(ctx, "employee", "bad")
	if _, err := a.Authenticate(ctx, "employee", "employee123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, _ = a.Authenticate(ctx, "employee", "bad")
	if _, err := a.Authenticate(ctx, "employee", "employee123"); err != nil {
		t.Fatalf("counter was not reset: %v", err)
	}
}
