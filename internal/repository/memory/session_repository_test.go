package memory

import (
	"testing"

	"ai-chat-be/internal/entity"
	"ai-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestSessionLifecycle(t *testing.T) {
	repo := NewSessionRepository()

	_, found := repo.Get("missing")
	assert.False(t, found)

	sess := &store.Session{ID: "s-1", UserID: "u-1", ThreadID: "t-1"}
	repo.Save(sess)

	got, found := repo.Get("s-1")
	if assert.True(t, found) {
		assert.Equal(t, "t-1", got.ThreadID)
	}

	repo.Delete("s-1")
	_, found = repo.Get("s-1")
	assert.False(t, found)
}

func TestPendingStepBuffer(t *testing.T) {
	repo := NewSessionRepository()

	assert.Equal(t, 0, repo.PendingStepCount("t-1"))

	repo.AppendPendingStep("t-1", &entity.Step{Id: "a", Output: "first"})
	repo.AppendPendingStep("t-1", &entity.Step{Id: "b", Output: "second"})
	repo.AppendPendingStep("t-2", &entity.Step{Id: "c"})

	assert.Equal(t, 2, repo.PendingStepCount("t-1"))
	assert.Equal(t, 1, repo.PendingStepCount("t-2"))

	drained := repo.DrainPendingSteps("t-1")
	if assert.Len(t, drained, 2) {
		assert.Equal(t, "first", drained[0].Output)
		assert.Equal(t, "second", drained[1].Output)
	}

	// Drain clears only the requested thread.
	assert.Equal(t, 0, repo.PendingStepCount("t-1"))
	assert.Equal(t, 1, repo.PendingStepCount("t-2"))

	assert.Empty(t, repo.DrainPendingSteps("t-1"))
}
