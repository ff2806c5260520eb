package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"office-portal/internal/appcontext"
	"office-portal/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// render — обёртка над c.HTML, которая во все шаблоны прокидывает CurrentUser
// и flash-сообщения. Без загруженных шаблонов (или по Accept: application/json)
// те же данные уходят в JSON.
func render(app *appcontext.Context, c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u, ok := middleware.CurrentUser(c); ok {
		data["CurrentUser"] = u
		data["CurrentUsername"] = u.Username
		data["CurrentUserRole"] = u.Role
	}

	sess := sessions.Default(c)
	if flashes := sess.Flashes(); len(flashes) > 0 {
		data["flashes"] = flashes
		_ = sess.Save()
	}

	if app.Templates && !wantsJSON(c) {
		c.HTML(status, tmpl, data)
		return
	}
	c.JSON(status, data)
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// flash кладёт сообщение в сессию до следующего рендера.
func flash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	_ = sess.Save()
}

func redirectWithFlash(c *gin.Context, location, msg string) {
	flash(c, msg)
	c.Redirect(http.StatusFound, location)
}

// parseID читает :id из пути; при ошибке отвечает 400.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusBadRequest, "Noto'g'ri ID")
		return 0, false
	}
	return uint(id), true
}

func notFound(c *gin.Context) {
	c.String(http.StatusNotFound, "Topilmadi")
}

func forbidden(c *gin.Context) {
	c.String(http.StatusForbidden, "access denied")
}

func internalError(app *appcontext.Context, c *gin.Context, err error, msg string) {
	app.Logger.Error(msg,
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.String(http.StatusInternalServerError, "Ichki xatolik")
}
