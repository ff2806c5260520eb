// Package workflow описывает жизненный цикл задач (Task) и поручений ijro (IjroTask).
//
// Запись создаётся в статусе new. Админ и менеджер меняют статус правкой,
// отдельное действие MarkDone доступно исполнителю своей записи.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"office-portal/internal/auth"
	"office-portal/internal/models"
	"office-portal/internal/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrForbidden = errors.New("only the assignee may close this task")
)

// Kind задаёт вид записи: обычная задача или поручение ijro.
type Kind string

const (
	KindTask Kind = "task"
	KindIjro Kind = "ijro"
)

func (k Kind) model() any {
	if k == KindIjro {
		return &models.IjroTask{}
	}
	return &models.Task{}
}

// Statuses перечисляет допустимые статусы для вида записи.
func (k Kind) Statuses() []models.TaskStatus {
	if k == KindIjro {
		return models.IjroStatuses
	}
	return models.TaskStatuses
}

// NormalizeStatus возвращает s, если он допустим для вида, иначе fallback.
func (k Kind) NormalizeStatus(s string, fallback models.TaskStatus) models.TaskStatus {
	for _, st := range k.Statuses() {
		if string(st) == s {
			return st
		}
	}
	return fallback
}

// Supervisor: может управлять любыми задачами.
func Supervisor(p auth.Principal) bool {
	return p.HasRole(models.RoleAdmin, models.RoleManager)
}

// CanView: сотрудник видит только свои задачи.
func CanView(p auth.Principal, assignedTo *uint) bool {
	if Supervisor(p) {
		return true
	}
	return assignedTo != nil && *assignedTo == p.UserID
}

type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
	log      *zap.Logger
}

func NewService(db *gorm.DB, notifier notify.Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{db: db, notifier: notifier, log: log}
}

// MarkDone переводит запись в done. Повторный вызов на закрытой записи не считается ошибкой.
func (s *Service) MarkDone(ctx context.Context, kind Kind, id uint, p auth.Principal) error {
	var rec struct {
		AssignedToID *uint
		Status       models.TaskStatus
	}
	err := s.db.WithContext(ctx).Model(kind.model()).
		Select("assigned_to_id", "status").
		Where("id = ?", id).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s %d: %w", kind, id, err)
	}

	if !CanView(p, rec.AssignedToID) {
		return ErrForbidden
	}
	if rec.Status == models.TaskDone {
		return nil
	}

	err = s.db.WithContext(ctx).Model(kind.model()).
		Where("id = ?", id).
		Update("status", models.TaskDone).Error
	if err != nil {
		return fmt.Errorf("mark %s %d done: %w", kind, id, err)
	}
	return nil
}

// NotifyAssignee отправляет исполнителю сообщение о назначении. Ошибки только
// логируются: запрос из-за уведомления не падает.
func (s *Service) NotifyAssignee(ctx context.Context, kind Kind, assignedTo *uint, title string) {
	if assignedTo == nil {
		return
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, *assignedTo).Error; err != nil {
		s.log.Warn("assignee lookup failed", zap.Uint("user_id", *assignedTo), zap.Error(err))
		return
	}
	if user.TelegramChatID == nil {
		return
	}

	text := fmt.Sprintf("Sizga yangi vazifa biriktirildi: %s", title)
	if kind == KindIjro {
		text = fmt.Sprintf("Sizga yangi ijro topshirig'i biriktirildi: %s", title)
	}
	if err := s.notifier.Notify(ctx, *user.TelegramChatID, text); err != nil {
		s.log.Warn("assignment notification failed",
			zap.String("kind", string(kind)),
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
	}
}
