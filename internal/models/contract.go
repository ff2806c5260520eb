package models

type Contract struct {
	BaseModel
	Title  string  `gorm:"size:200"`
	Amount float64 `gorm:"not null;default:0"`
	Status string  `gorm:"size:32"`
}
