package models

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

// Valid сообщает, входит ли роль в список известных тегов.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// AllRoles в порядке вывода на дашборде.
var AllRoles = []UserRole{RoleAdmin, RoleManager, RoleEmployee}

type User struct {
	BaseModel
	Username       string   `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash   string   `gorm:"size:255;not null" json:"-"`
	Role           UserRole `gorm:"type:varchar(32);not null;default:employee"`
	TelegramChatID *int64   // для уведомлений о назначенных задачах
}
