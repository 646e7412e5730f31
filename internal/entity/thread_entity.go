package entity

import (
	"time"
)

type Thread struct {
	Id             string
	Name           string
	CreatedAt      time.Time
	UserId         string
	UserIdentifier string
	Metadata       map[string]interface{}
	Tags           []string
	Steps          []*Step
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
