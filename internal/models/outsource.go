package models

import "gorm.io/datatypes"

// OutsourceCompany: подрядчик на аутсорсинге и его договор.
type OutsourceCompany struct {
	BaseModel
	Name           string `gorm:"size:128;not null"`
	ServiceType    string `gorm:"size:128"`
	ContractNumber string `gorm:"size:64"`
	ContractDate   *datatypes.Date
	ContractAmount float64 `gorm:"not null;default:0"`
	Comment        string  `gorm:"type:text"`

	Employees []OutsourceEmployee `gorm:"foreignKey:CompanyID"`
}

type OutsourceEmployee struct {
	BaseModel
	CompanyID uint   `gorm:"not null;index"`
	FullName  string `gorm:"size:128"`
	Position  string `gorm:"size:128"`
	Phone     string `gorm:"size:32"`
}
