package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"office-portal/internal/appcontext"
	"office-portal/internal/forms"
	"office-portal/internal/middleware"
	"office-portal/internal/models"
	"office-portal/internal/registry"
	"office-portal/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileField описывает поле записи, хранящее имя загруженного файла.
type FileField[T any] struct {
	Form string
	Get  func(*T) string
	Set  func(*T, string)
}

// FormError: ошибка ввода, форма показывается снова с кодом 400.
type FormError string

func (e FormError) Error() string { return string(e) }

// Resource описывает справочник. Маршруты
// list/create/detail/edit[/delete] для всех справочников одинаковые.
type Resource[T models.Keyed] struct {
	Name  string // префикс шаблонов: <name>_list.html, <name>_form.html, <name>_detail.html
	Path  string
	Label string // для flash-сообщений

	ViewRoles  []models.UserRole
	WriteRoles []models.UserRole
	Deletable  bool

	Order    string
	Preloads []string

	// Bind переносит поля формы в запись. FormError показывается в форме,
	// любая другая ошибка даёт 500.
	Bind func(c *gin.Context, f forms.Form, rec *T) error
	// FormData отдаёт данные для выпадающих списков формы.
	FormData func(c *gin.Context) (gin.H, error)
	// DetailData отдаёт связанные записи для карточки.
	DetailData func(c *gin.Context, rec *T) (gin.H, error)
	// Scope добавляет дополнительные условия списка (например, «только мои»).
	Scope func(c *gin.Context) []registry.Filter
	// Visible проверяет, может ли текущий пользователь видеть запись.
	Visible func(c *gin.Context, rec *T) bool
	// AfterSave вызывается после успешного сохранения; before == nil при создании.
	AfterSave func(c *gin.Context, rec *T, before *T)

	Files []FileField[T]

	store *registry.Store[T]
}

func (r *Resource[T]) Mount(app *appcontext.Context, g *gin.RouterGroup) {
	r.store = registry.NewStore[T](app.DB, registry.OrderBy(r.Order), registry.Preload(r.Preloads...))

	view := middleware.RequireRole(r.ViewRoles...)
	write := middleware.RequireRole(r.WriteRoles...)

	g.GET(r.Path, view, r.list(app))
	g.GET(r.Path+"/create", write, r.showNew(app))
	g.POST(r.Path+"/create", write, r.create(app))
	g.GET(r.Path+"/:id", view, r.detail(app))
	g.GET(r.Path+"/:id/edit", write, r.showEdit(app))
	g.POST(r.Path+"/:id/edit", write, r.update(app))
	if r.Deletable {
		g.POST(r.Path+"/:id/delete", write, r.remove(app))
	}
}

func (r *Resource[T]) Store() *registry.Store[T] {
	return r.store
}

func (r *Resource[T]) list(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var scope []registry.Filter
		if r.Scope != nil {
			scope = r.Scope(c)
		}

		items, err := r.store.List(scope...)
		if err != nil {
			internalError(app, c, err, "failed to list "+r.Name)
			return
		}

		render(app, c, http.StatusOK, r.Name+"_list.html", gin.H{"items": items})
	}
}

// load достаёт запись по :id, отвечая 400/404/403/500 при неудаче.
func (r *Resource[T]) load(app *appcontext.Context, c *gin.Context) (*T, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	rec, err := r.store.Get(id)
	if errors.Is(err, registry.ErrNotFound) {
		notFound(c)
		return nil, false
	}
	if err != nil {
		internalError(app, c, err, "failed to load "+r.Name)
		return nil, false
	}
	if r.Visible != nil && !r.Visible(c, rec) {
		forbidden(c)
		return nil, false
	}
	return rec, true
}

func (r *Resource[T]) detail(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := r.load(app, c)
		if !ok {
			return
		}

		data := gin.H{}
		if r.DetailData != nil {
			extra, err := r.DetailData(c, rec)
			if err != nil {
				internalError(app, c, err, "failed to load "+r.Name+" details")
				return
			}
			data = extra
		}
		data["item"] = rec

		render(app, c, http.StatusOK, r.Name+"_detail.html", data)
	}
}

func (r *Resource[T]) renderForm(app *appcontext.Context, c *gin.Context, status int, rec *T, msg string) {
	data := gin.H{}
	if r.FormData != nil {
		extra, err := r.FormData(c)
		if err != nil {
			internalError(app, c, err, "failed to load "+r.Name+" form data")
			return
		}
		data = extra
	}
	data["item"] = rec
	data["error"] = msg

	render(app, c, status, r.Name+"_form.html", data)
}

func (r *Resource[T]) bindFailed(app *appcontext.Context, c *gin.Context, rec *T, err error) {
	var fe FormError
	if errors.As(err, &fe) {
		r.renderForm(app, c, http.StatusBadRequest, rec, string(fe))
		return
	}
	internalError(app, c, err, "failed to bind "+r.Name)
}

func (r *Resource[T]) showNew(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		r.renderForm(app, c, http.StatusOK, nil, "")
	}
}

func (r *Resource[T]) showEdit(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := r.load(app, c)
		if !ok {
			return
		}
		r.renderForm(app, c, http.StatusOK, rec, "")
	}
}

func (r *Resource[T]) create(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := new(T)
		if err := r.Bind(c, forms.New(c.PostForm), rec); err != nil {
			r.bindFailed(app, c, nil, err)
			return
		}

		staged, msg := r.stageFiles(app, c, rec)
		if msg != "" {
			r.renderForm(app, c, http.StatusBadRequest, nil, msg)
			return
		}

		if err := r.store.Create(rec); err != nil {
			discardAll(staged)
			internalError(app, c, err, "failed to create "+r.Name)
			return
		}

		if err := commitAll(staged); err != nil {
			// запись без файла не оставляем
			if derr := r.store.Delete((*rec).Key()); derr != nil {
				app.Logger.Error("failed to roll back "+r.Name, zap.Uint("id", (*rec).Key()), zap.Error(derr))
			}
			internalError(app, c, err, "failed to store "+r.Name+" upload")
			return
		}

		if r.AfterSave != nil {
			r.AfterSave(c, rec, nil)
		}
		redirectWithFlash(c, r.Path, r.Label+" qo'shildi")
	}
}

func (r *Resource[T]) update(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := r.load(app, c)
		if !ok {
			return
		}
		before := *rec

		if err := r.Bind(c, forms.New(c.PostForm), rec); err != nil {
			r.bindFailed(app, c, &before, err)
			return
		}

		staged, msg := r.stageFiles(app, c, rec)
		if msg != "" {
			r.renderForm(app, c, http.StatusBadRequest, &before, msg)
			return
		}

		if err := r.store.Update(rec); err != nil {
			discardAll(staged)
			internalError(app, c, err, "failed to update "+r.Name)
			return
		}

		if err := commitAll(staged); err != nil {
			// возвращаем прежние имена файлов
			for _, f := range r.Files {
				f.Set(rec, f.Get(&before))
			}
			if rerr := r.store.Update(rec); rerr != nil {
				app.Logger.Error("failed to restore "+r.Name+" files", zap.Uint("id", (*rec).Key()), zap.Error(rerr))
			}
			internalError(app, c, err, "failed to store "+r.Name+" upload")
			return
		}

		if r.AfterSave != nil {
			r.AfterSave(c, rec, &before)
		}
		redirectWithFlash(c, fmt.Sprintf("%s/%d", r.Path, (*rec).Key()), r.Label+" yangilandi")
	}
}

func (r *Resource[T]) remove(app *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		err := r.store.Delete(id)
		if errors.Is(err, registry.ErrNotFound) {
			notFound(c)
			return
		}
		if err != nil {
			internalError(app, c, err, "failed to delete "+r.Name)
			return
		}

		redirectWithFlash(c, r.Path, r.Label+" o'chirildi")
	}
}

// stageFiles сохраняет пришедшие файлы во временные и проставляет имена в запись.
// Поле без файла оставляет прежнее значение.
func (r *Resource[T]) stageFiles(app *appcontext.Context, c *gin.Context, rec *T) ([]*storage.Staged, string) {
	var staged []*storage.Staged
	for _, f := range r.Files {
		fh, err := c.FormFile(f.Form)
		if err != nil {
			continue
		}

		s, err := app.Uploads.Stage(fh)
		if errors.Is(err, storage.ErrInvalidFilename) {
			discardAll(staged)
			return nil, "Fayl nomi noto'g'ri"
		}
		if err != nil {
			discardAll(staged)
			app.Logger.Error("failed to stage upload", zap.String("field", f.Form), zap.Error(err))
			return nil, "Faylni saqlab bo'lmadi"
		}

		staged = append(staged, s)
		f.Set(rec, s.Name)
	}
	return staged, ""
}

func commitAll(staged []*storage.Staged) error {
	for i, s := range staged {
		if err := s.Commit(); err != nil {
			discardAll(staged[i+1:])
			return err
		}
	}
	return nil
}

func discardAll(staged []*storage.Staged) {
	for _, s := range staged {
		s.Discard()
	}
}
