package memory

import (
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps active session contexts and the per-thread buffer of
// steps waiting for the next user-message boundary. Both are process-local and
// expire with inactivity; durable state is owned by the storage engine.
type SessionRepository struct {
	sessions *cache.Cache
	pending  *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	return &SessionRepository{
		sessions: cache.New(1*time.Hour, 10*time.Minute),
		pending:  cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.sessions.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.sessions.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.sessions.Delete(sessionID)
}

// AppendPendingStep buffers a raw turn for its thread until the reconciliation
// layer flushes the batch on the next user-message boundary.
func (r *SessionRepository) AppendPendingStep(threadID string, step *entity.Step) {
	steps := r.peekPending(threadID)
	steps = append(steps, step)
	r.pending.Set(threadID, steps, cache.DefaultExpiration)
}

// DrainPendingSteps returns and clears the buffered steps for a thread.
func (r *SessionRepository) DrainPendingSteps(threadID string) []*entity.Step {
	steps := r.peekPending(threadID)
	r.pending.Delete(threadID)
	return steps
}

func (r *SessionRepository) PendingStepCount(threadID string) int {
	return len(r.peekPending(threadID))
}

func (r *SessionRepository) peekPending(threadID string) []*entity.Step {
	if x, found := r.pending.Get(threadID); found {
		return x.([]*entity.Step)
	}
	return nil
}
