package entity

import (
	"time"
)

type Step struct {
	Id        string
	ThreadId  string
	Name      string
	Ordinal   int
	CreatedAt time.Time
	Type      string
	Output    string
}
