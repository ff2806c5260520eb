package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"office-portal/internal/appcontext"
	"office-portal/internal/auth"
	"office-portal/internal/middleware"
	"office-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListUsers показывает /hr/users, учётные записи с ролями.
func ListUsers(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := app.DB.WithContext(c.Request.Context()).Order("username asc").Find(&users).Error; err != nil {
			internalError(app, c, err, "failed to list users")
			return
		}
		render(app, c, http.StatusOK, "users_list.html", gin.H{"users": users})
	}
}

func ShowNewUser(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(app, c, http.StatusOK, "users_form.html", gin.H{"error": "", "roles": models.AllRoles})
	}
}

type userForm struct {
	Username       string `form:"username"`
	Password       string `form:"password"`
	Role           string `form:"role"`
	TelegramChatID string `form:"telegram_chat_id"`
}

// CreateUser заводит учётку; пароль сохраняется только в виде bcrypt-хэша.
func CreateUser(app *appcontext.Context) gin.HandlerFunc {
	fail := func(c *gin.Context, msg string) {
		render(app, c, http.StatusBadRequest, "users_form.html", gin.H{"error": msg, "roles": models.AllRoles})
	}

	return func(c *gin.Context) {
		var form userForm
		if err := c.ShouldBind(&form); err != nil {
			fail(c, "Noto'g'ri ma'lumotlar")
			return
		}

		form.Username = strings.TrimSpace(form.Username)
		if len(form.Username) < 3 || len(form.Password) < 6 {
			fail(c, "Login yoki parol juda qisqa")
			return
		}

		role := models.UserRole(form.Role)
		if !role.Valid() {
			fail(c, "Noto'g'ri rol")
			return
		}

		var chatID *int64
		if s := strings.TrimSpace(form.TelegramChatID); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				fail(c, "Telegram chat ID raqam bo'lishi kerak")
				return
			}
			chatID = &id
		}

		db := app.DB.WithContext(c.Request.Context())
		var existing models.User
		err := db.Where("username = ?", form.Username).First(&existing).Error
		if err == nil {
			fail(c, "Bunday foydalanuvchi allaqachon mavjud")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			internalError(app, c, err, "failed to check username")
			return
		}

		hash, err := auth.HashPassword(form.Password)
		if err != nil {
			internalError(app, c, err, "failed to hash password")
			return
		}
		user := models.User{
			Username:       form.Username,
			PasswordHash:   hash,
			Role:           role,
			TelegramChatID: chatID,
		}
		if err := db.Create(&user).Error; err != nil {
			internalError(app, c, err, "failed to create user")
			return
		}

		app.Logger.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
		redirectWithFlash(c, "/hr/users", "Foydalanuvchi qo'shildi")
	}
}

// MyProfile: /hr/profile/me, кадровая карточка текущего пользователя.
func MyProfile(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := middleware.CurrentPrincipal(c)

		var profile models.EmployeeProfile
		err := app.DB.WithContext(c.Request.Context()).Where("user_id = ?", p.UserID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(c)
			return
		}
		if err != nil {
			internalError(app, c, err, "failed to load own profile")
			return
		}
		render(app, c, http.StatusOK, "profiles_detail.html", gin.H{"item": profile})
	}
}
