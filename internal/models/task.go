package models

import "gorm.io/datatypes"

type TaskStatus string

const (
	TaskNew        TaskStatus = "new"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskRejected   TaskStatus = "rejected"
)

// Статусы обычных задач и поручений ijro (у ijro нет rejected).
var (
	TaskStatuses = []TaskStatus{TaskNew, TaskInProgress, TaskDone, TaskRejected}
	IjroStatuses = []TaskStatus{TaskNew, TaskInProgress, TaskDone}
)

const DefaultPriority = "normal"

type Task struct {
	BaseModel
	Title       string     `gorm:"size:200;not null"`
	Description string     `gorm:"type:text"`
	Status      TaskStatus `gorm:"type:varchar(32);not null;default:new;index"`
	Priority    string     `gorm:"size:16;not null;default:normal"`
	DueDate     *datatypes.Date

	CreatedByID  *uint
	CreatedBy    *User
	AssignedToID *uint `gorm:"index"`
	AssignedTo   *User
}

// IjroTask — поручение в системе исполнительской дисциплины.
type IjroTask struct {
	BaseModel
	Title       string         `gorm:"size:200;not null"`
	Description string         `gorm:"type:text"`
	Date        datatypes.Date `gorm:"index"`
	DueDate     *datatypes.Date
	Status      TaskStatus `gorm:"type:varchar(32);not null;default:new;index"`

	CreatedByID  *uint
	CreatedBy    *User
	AssignedToID *uint `gorm:"index"`
	AssignedTo   *User
}
