package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
)

type StepRepository interface {
	// UpsertBatch inserts or fully replaces each step keyed by id. Callers run
	// it inside a unit of work so a batch commits or rolls back as a whole.
	UpsertBatch(ctx context.Context, steps []*entity.Step) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Step, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
