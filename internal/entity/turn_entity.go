package entity

import (
	"time"
)

// Turn is one in-memory role-tagged unit of conversation before persistence.
// CreatedAt is optional; reconciliation falls back to the owning thread's
// CreatedAt when a turn carries none.
type Turn struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}
