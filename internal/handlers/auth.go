package handlers

import (
	"errors"
	"net/http"

	"office-portal/internal/appcontext"
	"office-portal/internal/auth"
	"office-portal/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ShowLogin(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(app, c, http.StatusOK, "login.html", gin.H{"error": ""})
	}
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func Login(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form loginForm
		if err := c.ShouldBind(&form); err != nil {
			render(app, c, http.StatusBadRequest, "login.html", gin.H{"error": "Noto'g'ri ma'lumotlar"})
			return
		}

		user, err := app.Auth.Authenticate(c.Request.Context(), form.Username, form.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			render(app, c, http.StatusBadRequest, "login.html", gin.H{"error": "Login yoki parol noto'g'ri"})
			return
		case errors.Is(err, auth.ErrTooManyAttempts):
			app.Logger.Warn("login locked out", zap.String("username", form.Username), zap.String("ip", c.ClientIP()))
			render(app, c, http.StatusTooManyRequests, "login.html", gin.H{"error": "Urinishlar soni oshib ketdi, keyinroq qayta urinib ko'ring"})
			return
		case err != nil:
			internalError(app, c, err, "login failed")
			return
		}

		sess := sessions.Default(c)
		sess.Clear()
		sess.Set(middleware.SessionUserID, user.ID)
		sess.Set(middleware.SessionRole, string(user.Role))
		sess.AddFlash("Xush kelibsiz, " + user.Username + "!")
		if err := sess.Save(); err != nil {
			internalError(app, c, err, "failed to save session")
			return
		}

		c.Redirect(http.StatusFound, "/")
	}
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.AddFlash("Tizimdan chiqdingiz")
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/login")
}
