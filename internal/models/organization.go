package models

type Organization struct {
	BaseModel
	Name          string `gorm:"size:128;not null"`
	EmployeeCount int    `gorm:"not null;default:0"`
	Address       string `gorm:"size:255"`
	Floor         string `gorm:"size:64"`
	Comment       string `gorm:"type:text"`

	Vehicles []Vehicle
}
