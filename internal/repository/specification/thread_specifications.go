package specification

import (
	"gorm.io/gorm"
)

// ByThreadID filters steps belonging to one thread
type ByThreadID struct {
	ThreadID string
}

func (s ByThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.ThreadID)
}

// OwnedBy filters threads by owner user id
type OwnedBy struct {
	UserID string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
