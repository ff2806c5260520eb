package server

import (
	"net/http"
	"path/filepath"

	"office-portal/internal/appcontext"
	"office-portal/internal/handlers"
	"office-portal/internal/middleware"
	"office-portal/internal/models"
	"office-portal/internal/workflow"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mounter interface {
	Mount(app *appcontext.Context, g *gin.RouterGroup)
}

func NewRouter(app *appcontext.Context) *gin.Engine {
	r := gin.Default()

	r.Static("/static", "./web/static")

	r.SetFuncMap(templateFuncs())
	if matches, _ := filepath.Glob(app.Config.TemplatesGlob); len(matches) > 0 {
		r.LoadHTMLGlob(app.Config.TemplatesGlob)
		app.Templates = true
	} else {
		app.Logger.Warn("no HTML templates found, responding with JSON", zap.String("glob", app.Config.TemplatesGlob))
	}

	store := cookie.NewStore([]byte(app.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   app.Config.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("portal_session", store))

	r.Use(middleware.InjectUser(app))

	// ГЛАВНАЯ
	r.GET("/", handlers.IndexPage)

	// AUTH
	r.GET("/login", handlers.ShowLogin(app))
	r.POST("/login", handlers.Login(app))
	r.GET("/logout", handlers.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.Static("/uploads", app.Uploads.Dir())

	// ДАШБОРДЫ
	auth.GET("/admin/dashboard", middleware.RequireRole(models.RoleAdmin), handlers.AdminDashboard(app))
	auth.GET("/manager/dashboard", middleware.RequireRole(models.RoleManager), handlers.ManagerDashboard(app))
	auth.GET("/employee/dashboard", middleware.RequireRole(models.RoleEmployee), handlers.EmployeeDashboard(app))

	// СПРАВОЧНИКИ
	resources := []mounter{
		handlers.VehicleResource(app),
		handlers.OrganizationResource(app),
		handlers.OutsourceResource(app),
		handlers.OrgTechResource(app),
		handlers.SolarResource(app),
		handlers.ContractResource(app),
		handlers.ProfileResource(app),
		handlers.TaskResource(app),
		handlers.IjroResource(app),
	}
	for _, res := range resources {
		res.Mount(app, auth)
	}

	supervisors := middleware.RequireRole(models.RoleAdmin, models.RoleManager)
	auth.POST("/outsourcing/:id/employees", supervisors, handlers.AddOutsourceEmployee(app))
	auth.POST("/solar/:id/readings", supervisors, handlers.AddSolarReading(app))

	// ЗАДАЧИ: закрыть может исполнитель, админ или менеджер
	auth.POST("/tasks/:id/done", handlers.MarkDone(app, workflow.KindTask, "/tasks"))
	auth.POST("/ijro/:id/done", handlers.MarkDone(app, workflow.KindIjro, "/ijro"))
	auth.POST("/ijro/done/:id", handlers.MarkDone(app, workflow.KindIjro, "/ijro"))

	// HR
	auth.GET("/hr/users", supervisors, handlers.ListUsers(app))
	auth.GET("/hr/users/create", middleware.RequireRole(models.RoleAdmin), handlers.ShowNewUser(app))
	auth.POST("/hr/users/create", middleware.RequireRole(models.RoleAdmin), handlers.CreateUser(app))
	auth.GET("/hr/profile/me", handlers.MyProfile(app))

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
