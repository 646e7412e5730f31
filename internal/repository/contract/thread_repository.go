package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
)

type ThreadRepository interface {
	// Upsert inserts or fully replaces the thread record keyed by id.
	Upsert(ctx context.Context, thread *entity.Thread) error
	// Delete soft-deletes the thread. Rows are never physically removed.
	Delete(ctx context.Context, id string) error
	// FindOneUnscoped fetches by id ignoring the soft-delete scope, so a
	// direct fetch still returns a deleted thread.
	FindOneUnscoped(ctx context.Context, id string) (*entity.Thread, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
