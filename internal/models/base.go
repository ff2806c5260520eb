package models

import "gorm.io/gorm"

// BaseModel: gorm.Model с доступом к ключу из обобщённого кода.
type BaseModel struct {
	gorm.Model
}

func (m BaseModel) Key() uint { return m.ID }

// Keyed: любая запись справочника.
type Keyed interface {
	Key() uint
}
