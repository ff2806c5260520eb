package models

import "gorm.io/datatypes"

type SolarSite struct {
	BaseModel
	Name        string  `gorm:"size:128;not null"`
	ExternalURL string  `gorm:"size:255"`
	CapacityKW  float64 `gorm:"column:capacity_kw;not null;default:0"`

	Readings []SolarReading `gorm:"foreignKey:SiteID"`
}

// SolarReading — суточная выработка. Пара (site, date) не уникальна.
type SolarReading struct {
	BaseModel
	SiteID    uint `gorm:"not null;index"`
	Site      *SolarSite
	Date      datatypes.Date `gorm:"index;not null"`
	EnergyKWh float64        `gorm:"column:energy_kwh;not null;default:0"`
}
