package handlers

import (
	"net/http"
	"time"

	"office-portal/internal/appcontext"
	"office-portal/internal/dashboard"
	"office-portal/internal/middleware"
	"office-portal/internal/models"

	"github.com/gin-gonic/gin"
)

func AdminDashboard(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()

		byRole, err := app.Dashboard.UsersByRole(ctx)
		if err != nil {
			internalError(app, c, err, "admin dashboard")
			return
		}
		byStatus, err := app.Dashboard.TasksByStatus(ctx)
		if err != nil {
			internalError(app, c, err, "admin dashboard")
			return
		}
		ijro, err := app.Dashboard.IjroByStatus(ctx)
		if err != nil {
			internalError(app, c, err, "admin dashboard")
			return
		}
		contractSum, err := app.Dashboard.ContractTotal(ctx)
		if err != nil {
			internalError(app, c, err, "admin dashboard")
			return
		}
		solarToday, err := app.Dashboard.SolarEnergyOn(ctx, now)
		if err != nil {
			internalError(app, c, err, "admin dashboard")
			return
		}
		series, err := app.Dashboard.SolarSeries(ctx, now, dashboard.SeriesDays)
		if err != nil {
			internalError(app, c, err, "admin dashboard")
			return
		}

		var userCount, taskCount int64
		for _, n := range byRole {
			userCount += n
		}
		for _, n := range byStatus {
			taskCount += n
		}

		render(app, c, http.StatusOK, "admin_dashboard.html", gin.H{
			"user_count":    userCount,
			"users_by_role": byRole,
			"task_count":    taskCount,
			"tasks":         byStatus,
			"ijro":          ijro,
			"contract_sum":  contractSum,
			"solar_today":   solarToday,
			"solar_series":  series,
		})
	}
}

func ManagerDashboard(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := app.DB.WithContext(ctx)

		var (
			tasks     []models.Task
			vehicles  []models.Vehicle
			contracts []models.Contract
			companies []models.OutsourceCompany
		)
		if err := db.Preload("AssignedTo").Order("created_at desc").Limit(20).Find(&tasks).Error; err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}
		if err := db.Order("id asc").Limit(4).Find(&vehicles).Error; err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}
		if err := db.Order("created_at desc").Limit(5).Find(&contracts).Error; err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}
		if err := db.Order("name asc").Limit(3).Find(&companies).Error; err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}

		byRole, err := app.Dashboard.UsersByRole(ctx)
		if err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}
		byStatus, err := app.Dashboard.TasksByStatus(ctx)
		if err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}
		contractSum, err := app.Dashboard.ContractTotal(ctx)
		if err != nil {
			internalError(app, c, err, "manager dashboard")
			return
		}

		render(app, c, http.StatusOK, "manager_dashboard.html", gin.H{
			"tasks":                 tasks,
			"vehicles":              vehicles,
			"contracts":             contracts,
			"outsourcing_companies": companies,
			"active_employees":      byRole[models.RoleEmployee],
			"new_tasks":             byStatus[models.TaskNew],
			"in_progress":           byStatus[models.TaskInProgress],
			"done_tasks":            byStatus[models.TaskDone],
			"total_contract_amount": contractSum,
		})
	}
}

func EmployeeDashboard(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := middleware.CurrentPrincipal(c)
		db := app.DB.WithContext(c.Request.Context())

		var (
			myTasks []models.Task
			ijro    []models.IjroTask
			profile []models.EmployeeProfile
		)
		if err := db.Where("assigned_to_id = ?", p.UserID).Order("created_at desc").Find(&myTasks).Error; err != nil {
			internalError(app, c, err, "employee dashboard")
			return
		}
		if err := db.Where("assigned_to_id = ?", p.UserID).Order("due_date asc").Find(&ijro).Error; err != nil {
			internalError(app, c, err, "employee dashboard")
			return
		}
		if err := db.Where("user_id = ?", p.UserID).Limit(1).Find(&profile).Error; err != nil {
			internalError(app, c, err, "employee dashboard")
			return
		}

		data := gin.H{"my_tasks": myTasks, "ijro": ijro, "profile": nil}
		if len(profile) > 0 {
			data["profile"] = profile[0]
		}
		render(app, c, http.StatusOK, "employee_dashboard.html", data)
	}
}
