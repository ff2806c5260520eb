package middleware

import (
	"errors"
	"net/http"

	"office-portal/internal/appcontext"
	"office-portal/internal/auth"
	"office-portal/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SessionUserID = "user_id"
	SessionRole   = "role"

	principalKey   = "principal"
	currentUserKey = "CurrentUser"
)

// InjectUser кладёт в контекст запроса пользователя из сессии. Сессия,
// ссылающаяся на удалённого пользователя, очищается.
func InjectUser(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		uid, ok := sess.Get(SessionUserID).(uint)
		if !ok || uid == 0 {
			c.Next()
			return
		}

		var user models.User
		err := app.DB.WithContext(c.Request.Context()).First(&user, uid).Error
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
			c.Set(principalKey, auth.Principal{UserID: user.ID, Username: user.Username, Role: user.Role})
		case errors.Is(err, gorm.ErrRecordNotFound):
			sess.Clear()
			_ = sess.Save()
		default:
			app.Logger.Error("failed to load session user", zap.Uint("user_id", uid), zap.Error(err))
		}

		c.Next()
	}
}

// CurrentPrincipal возвращает аутентифицированного пользователя запроса.
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// CurrentUser возвращает полную запись пользователя для шаблонов.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentPrincipal(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole: без сессии — на /login, чужая роль — 403.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if _, ok := roleSet[p.Role]; !ok {
			c.String(http.StatusForbidden, "access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}
