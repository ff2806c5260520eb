package models

// EmployeeProfile — кадровая карточка сотрудника (HR).
type EmployeeProfile struct {
	BaseModel
	UserID *uint `gorm:"uniqueIndex"` // nil, пока карточка не привязана к учётке
	User   *User

	FullName     string `gorm:"size:128"`
	PassportInfo string `gorm:"size:255"`
	DiplomaInfo  string `gorm:"size:255"`
	OtherDocs    string `gorm:"type:text"`

	// имена файлов в каталоге загрузок
	PassportFile string `gorm:"size:255"`
	DiplomaFile  string `gorm:"size:255"`
	OtherFile    string `gorm:"size:255"`
}
