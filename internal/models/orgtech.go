package models

import "time"

type OrgTechStatus string

const (
	OrgTechNew     OrgTechStatus = "new"
	OrgTechWorking OrgTechStatus = "working"
	OrgTechRepair  OrgTechStatus = "repair"
	OrgTechBroken  OrgTechStatus = "broken"
)

func (s OrgTechStatus) Valid() bool {
	switch s {
	case OrgTechNew, OrgTechWorking, OrgTechRepair, OrgTechBroken:
		return true
	}
	return false
}

// OrgTech: принтеры, ПК и прочая оргтехника.
type OrgTech struct {
	BaseModel
	Name         string        `gorm:"size:128"`
	DeviceModel  string        `gorm:"column:model;size:128"`
	SerialNumber string        `gorm:"size:128"`
	Status       OrgTechStatus `gorm:"type:varchar(32);not null;default:new"`

	AssignedToID *uint
	AssignedTo   *User

	LastUpdate time.Time
}
