package models

import "gorm.io/datatypes"

type Vehicle struct {
	BaseModel
	PlateNumber      *string `gorm:"uniqueIndex;size:32"` // уникален, если указан
	CarModel         string  `gorm:"column:model;size:64"`
	DriverFullName   string  `gorm:"size:128"`
	MonthlyFuelLimit float64 `gorm:"not null;default:0"`
	LastRepairDate   *datatypes.Date
	LastRepairStatus string `gorm:"size:255"`
	ImagePath        string `gorm:"size:255"`

	OrganizationID *uint
	Organization   *Organization
}

// Plate возвращает номер для вывода или "".
func (v Vehicle) Plate() string {
	if v.PlateNumber == nil {
		return ""
	}
	return *v.PlateNumber
}
