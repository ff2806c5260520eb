package handlers

import (
	"net/http"

	"office-portal/internal/middleware"
	"office-portal/internal/models"

	"github.com/gin-gonic/gin"
)

// IndexPage отправляет пользователя на дашборд его роли.
func IndexPage(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	switch p.Role {
	case models.RoleAdmin:
		c.Redirect(http.StatusFound, "/admin/dashboard")
	case models.RoleManager:
		c.Redirect(http.StatusFound, "/manager/dashboard")
	case models.RoleEmployee:
		c.Redirect(http.StatusFound, "/employee/dashboard")
	default:
		c.Redirect(http.StatusFound, "/login")
	}
}
