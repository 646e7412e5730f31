package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Thread struct {
	Id             string         `gorm:"type:text;primaryKey"`
	Name           string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UserId         string         `gorm:"type:text;index"`
	UserIdentifier string         `gorm:"type:text"`
	Metadata       datatypes.JSON `gorm:"type:jsonb"`
	Tags           datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Thread) TableName() string {
	return "threads"
}
