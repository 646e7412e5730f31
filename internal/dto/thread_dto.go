package dto

import (
	"time"
)

// UpdateThreadRequest carries a candidate set of field updates for one thread.
// Name, UserId, Metadata and Tags are independently optional; absent fields
// leave the stored value unchanged. Metadata may carry the in-memory
// conversation under the "message_history" key.
type UpdateThreadRequest struct {
	ThreadId  string                 `json:"thread_id" validate:"required"`
	SessionId string                 `json:"session_id"`
	Name      *string                `json:"name"`
	UserId    *string                `json:"user_id"`
	Metadata  map[string]interface{} `json:"metadata"`
	Tags      []string               `json:"tags"`
}

type CreateStepRequest struct {
	ThreadId  string     `json:"thread_id" validate:"required"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Output    string     `json:"output"`
	CreatedAt *time.Time `json:"created_at"`
}

// Pagination is accepted for interface compatibility with the chat UI
// collaborator; listing always answers with a single page.
type Pagination struct {
	First  int    `json:"first" query:"first"`
	Cursor string `json:"cursor" query:"cursor"`
}

type ThreadFilter struct {
	UserId string `json:"user_id" query:"user_id"`
	Search string `json:"search" query:"search"`
}

type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	StartCursor *string `json:"startCursor"`
	EndCursor   *string `json:"endCursor"`
}

type StepResponse struct {
	Id        string    `json:"id"`
	ThreadId  string    `json:"threadId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Type      string    `json:"type"`
	Output    string    `json:"output"`
}

type ThreadResponse struct {
	Id             string         `json:"id"`
	Name           string         `json:"name"`
	CreatedAt      time.Time      `json:"createdAt"`
	UserId         string         `json:"userId,omitempty"`
	UserIdentifier string         `json:"userIdentifier"`
	Tags           []string       `json:"tags,omitempty"`
	Steps          []StepResponse `json:"steps"`
}

type ThreadListResponse struct {
	Data     []ThreadResponse `json:"data"`
	PageInfo PageInfo         `json:"pageInfo"`
}

type ThreadAuthorResponse struct {
	ThreadId string `json:"threadId"`
	Author   string `json:"author"`
}

// ReconcileStatsResponse exposes the diagnostics counters aggregated from the
// event bus.
type ReconcileStatsResponse struct {
	StepsCreated      int64 `json:"steps_created"`
	ThreadsReconciled int64 `json:"threads_reconciled"`
	TurnsDropped      int64 `json:"turns_dropped"`
}
