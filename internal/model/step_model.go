package model

import (
	"time"
)

// Step is the persisted form of one conversational turn. Steps carry no
// soft-delete column of their own; they are hidden through their parent thread.
type Step struct {
	Id       string  `gorm:"type:text;primaryKey"`
	ThreadId string  `gorm:"type:text;not null;index"`
	Thread   *Thread `gorm:"foreignKey:ThreadId;references:Id"`
	Name     string  `gorm:"type:text"`
	// Ordinal is the step's position within its thread. Reconciled steps of
	// one thread share a created_at, so conversation order sorts on this.
	Ordinal   int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	Type      string    `gorm:"type:text"`
	Output    string    `gorm:"type:text"`
}

func (Step) TableName() string {
	return "steps"
}
