package handlers

import (
	"errors"
	"net/http"
	"time"

	"office-portal/internal/appcontext"
	"office-portal/internal/forms"
	"office-portal/internal/middleware"
	"office-portal/internal/models"
	"office-portal/internal/registry"
	"office-portal/internal/workflow"

	"github.com/gin-gonic/gin"
)

var allRoles = models.AllRoles

func creatorID(c *gin.Context) *uint {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return nil
	}
	id := p.UserID
	return &id
}

func sameAssignee(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TaskResource — обычные задачи. Сотрудник видит только назначенные ему.
func TaskResource(app *appcontext.Context) *Resource[models.Task] {
	return &Resource[models.Task]{
		Name:       "tasks",
		Path:       "/tasks",
		Label:      "Vazifa",
		ViewRoles:  allRoles,
		WriteRoles: supervisors,
		Order:      "created_at desc",
		Preloads:   []string{"AssignedTo", "CreatedBy"},
		FormData:   userOptions(app),
		Scope: func(c *gin.Context) []registry.Filter {
			p, _ := middleware.CurrentPrincipal(c)
			if workflow.Supervisor(p) {
				return nil
			}
			return []registry.Filter{registry.Where("assigned_to_id = ?", p.UserID)}
		},
		Visible: func(c *gin.Context, t *models.Task) bool {
			p, _ := middleware.CurrentPrincipal(c)
			return workflow.CanView(p, t.AssignedToID)
		},
		Bind: func(c *gin.Context, f forms.Form, t *models.Task) error {
			title := f.String("title")
			if title == "" {
				return FormError("Vazifa nomini kiriting")
			}
			t.Title = title
			t.Description = f.String("description")
			t.Priority = f.String("priority")
			if t.Priority == "" {
				t.Priority = models.DefaultPriority
			}
			t.DueDate = f.Date("due_date")
			t.AssignedToID = f.ID("assigned_to_id")

			if t.ID == 0 {
				t.Status = models.TaskNew
				t.CreatedByID = creatorID(c)
			} else {
				t.Status = workflow.KindTask.NormalizeStatus(f.String("status"), t.Status)
			}
			return nil
		},
		AfterSave: func(c *gin.Context, t *models.Task, before *models.Task) {
			if before == nil || !sameAssignee(before.AssignedToID, t.AssignedToID) {
				app.Workflow.NotifyAssignee(c.Request.Context(), workflow.KindTask, t.AssignedToID, t.Title)
			}
		},
	}
}

// IjroResource — поручения ijro. Календарь виден всем ролям, ?date=YYYY-MM-DD
// оставляет поручения одного дня.
func IjroResource(app *appcontext.Context) *Resource[models.IjroTask] {
	return &Resource[models.IjroTask]{
		Name:       "ijro",
		Path:       "/ijro",
		Label:      "Ijro topshirig'i",
		ViewRoles:  allRoles,
		WriteRoles: supervisors,
		Order:      "due_date asc",
		Preloads:   []string{"AssignedTo", "CreatedBy"},
		FormData:   userOptions(app),
		Scope: func(c *gin.Context) []registry.Filter {
			day, err := forms.ParseDate(c.Query("date"))
			if err != nil {
				return nil
			}
			return []registry.Filter{registry.Where("date = ?", datatypesDate(day))}
		},
		Bind: func(c *gin.Context, f forms.Form, t *models.IjroTask) error {
			title := f.String("title")
			if title == "" {
				return FormError("Topshiriq nomini kiriting")
			}
			t.Title = title
			t.Description = f.String("description")
			t.Date = f.DateOr("date", time.Now())
			t.DueDate = f.Date("due_date")
			t.AssignedToID = f.ID("assigned_to_id")

			if t.ID == 0 {
				t.Status = models.TaskNew
				t.CreatedByID = creatorID(c)
			} else {
				t.Status = workflow.KindIjro.NormalizeStatus(f.String("status"), t.Status)
			}
			return nil
		},
		AfterSave: func(c *gin.Context, t *models.IjroTask, before *models.IjroTask) {
			if before == nil || !sameAssignee(before.AssignedToID, t.AssignedToID) {
				app.Workflow.NotifyAssignee(c.Request.Context(), workflow.KindIjro, t.AssignedToID, t.Title)
			}
		},
	}
}

// MarkDone: POST /{tasks,ijro}/:id/done. Сотрудник закрывает только свои записи.
func MarkDone(app *appcontext.Context, kind workflow.Kind, back string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		p, _ := middleware.CurrentPrincipal(c)

		err := app.Workflow.MarkDone(c.Request.Context(), kind, id, p)
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			notFound(c)
		case errors.Is(err, workflow.ErrForbidden):
			forbidden(c)
		case err != nil:
			internalError(app, c, err, "failed to mark "+string(kind)+" done")
		default:
			if wantsJSON(c) {
				c.JSON(http.StatusOK, gin.H{"id": id, "status": models.TaskDone})
				return
			}
			redirectWithFlash(c, back, "Bajarildi deb belgilandi")
		}
	}
}
