package unitofwork

import (
	"context"

	"ai-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ThreadRepository() contract.ThreadRepository
	StepRepository() contract.StepRepository
}
