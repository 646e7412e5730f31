package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/stretchr/testify/assert"
)

// In-memory repository fakes exercising the service through its contracts.

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeThreadRepo struct {
	threads map[string]*entity.Thread
	deleted map[string]bool
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		threads: make(map[string]*entity.Thread),
		deleted: make(map[string]bool),
	}
}

func (r *fakeThreadRepo) Upsert(ctx context.Context, thread *entity.Thread) error {
	clone := *thread
	r.threads[thread.Id] = &clone
	return nil
}

func (r *fakeThreadRepo) Delete(ctx context.Context, id string) error {
	r.deleted[id] = true
	return nil
}

func (r *fakeThreadRepo) FindOneUnscoped(ctx context.Context, id string) (*entity.Thread, error) {
	if t, ok := r.threads[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeThreadRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error) {
	owner := ""
	for _, spec := range specs {
		if ownedBy, ok := spec.(specification.OwnedBy); ok {
			owner = ownedBy.UserID
		}
	}

	var out []*entity.Thread
	for id, t := range r.threads {
		if r.deleted[id] {
			continue
		}
		if owner != "" && t.UserId != owner {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeThreadRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeStepRepo struct {
	steps map[string]*entity.Step
}

func newFakeStepRepo() *fakeStepRepo {
	return &fakeStepRepo{steps: make(map[string]*entity.Step)}
}

func (r *fakeStepRepo) UpsertBatch(ctx context.Context, steps []*entity.Step) error {
	for _, st := range steps {
		clone := *st
		r.steps[st.Id] = &clone
	}
	return nil
}

func (r *fakeStepRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Step, error) {
	threadID := ""
	for _, spec := range specs {
		if byThread, ok := spec.(specification.ByThreadID); ok {
			threadID = byThread.ThreadID
		}
	}

	var out []*entity.Step
	for _, st := range r.steps {
		if threadID != "" && st.ThreadId != threadID {
			continue
		}
		clone := *st
		out = append(out, &clone)
	}
	// Mirrors the repository's ORDER BY ordinal; no hidden tiebreak.
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (r *fakeStepRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeUnitOfWork struct {
	threadRepo *fakeThreadRepo
	stepRepo   *fakeStepRepo
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error             { return nil }
func (u *fakeUnitOfWork) Commit() error                               { return nil }
func (u *fakeUnitOfWork) Rollback() error                             { return nil }
func (u *fakeUnitOfWork) ThreadRepository() contract.ThreadRepository { return u.threadRepo }
func (u *fakeUnitOfWork) StepRepository() contract.StepRepository     { return u.stepRepo }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func newTestDataLayer() (IDataLayerService, *fakeUnitOfWork, *memory.SessionRepository) {
	uow := &fakeUnitOfWork{
		threadRepo: newFakeThreadRepo(),
		stepRepo:   newFakeStepRepo(),
	}
	sessionRepo := memory.NewSessionRepository()
	svc := NewDataLayerService(&fakeFactory{uow: uow}, sessionRepo, nil, nopLogger{})
	return svc, uow, sessionRepo
}

func historyMetadata(pairs ...[2]string) map[string]interface{} {
	history := make([]interface{}, 0, len(pairs))
	for _, p := range pairs {
		history = append(history, map[string]interface{}{"role": p[0], "content": p[1]})
	}
	return map[string]interface{}{"message_history": history}
}

func TestUpdateThreadCreatesWhenUnknown(t *testing.T) {
	svc, uow, _ := newTestDataLayer()
	ctx := context.Background()

	name := "fresh thread"
	res, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-new",
		Name:     &name,
	})

	assert.NoError(t, err)
	if assert.NotNil(t, res) {
		assert.Equal(t, "t-new", res.Id)
		assert.Equal(t, "fresh thread", res.Name)
		assert.Equal(t, "admin", res.UserIdentifier)
		assert.Empty(t, res.Steps)
		assert.False(t, res.CreatedAt.IsZero())
	}

	stored := uow.threadRepo.threads["t-new"]
	if assert.NotNil(t, stored) {
		assert.Equal(t, "admin", stored.UserIdentifier)
	}
}

func TestUpdateThreadUnknownPersistsNoSteps(t *testing.T) {
	svc, uow, _ := newTestDataLayer()
	ctx := context.Background()

	// A synthesized thread persists without steps even when the creating
	// request already carries a paired history.
	res, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-first",
		Metadata: historyMetadata(
			[2]string{"user", "q1"},
			[2]string{"assistant", "r1"},
		),
	})

	assert.NoError(t, err)
	if assert.NotNil(t, res) {
		assert.Empty(t, res.Steps)
	}
	assert.Empty(t, uow.stepRepo.steps)

	// The same history reconciles into steps once the thread exists.
	res, err = svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-first",
		Metadata: historyMetadata(
			[2]string{"user", "q1"},
			[2]string{"assistant", "r1"},
		),
	})
	assert.NoError(t, err)
	if assert.NotNil(t, res) {
		assert.Len(t, res.Steps, 2)
	}
	assert.Len(t, uow.stepRepo.steps, 2)
}

func TestUpdateThreadReconcilesHistoryIntoSteps(t *testing.T) {
	svc, uow, _ := newTestDataLayer()
	ctx := context.Background()

	// Seed the thread so the update path runs reconciliation.
	_, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-1"})
	assert.NoError(t, err)

	res, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-1",
		Metadata: historyMetadata(
			[2]string{"user", "q1"},
			[2]string{"assistant", "r1"},
			[2]string{"user", "q2"},
			[2]string{"assistant", "r2"},
			[2]string{"user", "dangling"},
		),
	})

	assert.NoError(t, err)
	if assert.NotNil(t, res) {
		assert.Len(t, res.Steps, 4)
		assert.Equal(t, "t-1-step-0", res.Steps[0].Id)
		assert.Equal(t, "t-1-step-3", res.Steps[3].Id)
		assert.Equal(t, "q1", res.Steps[0].Output)
		assert.Equal(t, "r2", res.Steps[3].Output)
	}

	// The dangling user turn never reached storage.
	assert.Len(t, uow.stepRepo.steps, 4)
	_, hasDangling := uow.stepRepo.steps["t-1-step-4"]
	assert.False(t, hasDangling)
}

func TestUpdateThreadReplacesFields(t *testing.T) {
	svc, _, _ := newTestDataLayer()
	ctx := context.Background()

	first := "first name"
	_, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-1", Name: &first})
	assert.NoError(t, err)

	second := "second name"
	res, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-1", Name: &second})
	assert.NoError(t, err)
	assert.Equal(t, "second name", res.Name)

	// An update without the field leaves the stored value alone.
	res, err = svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-1"})
	assert.NoError(t, err)
	assert.Equal(t, "second name", res.Name)
}

func TestRebuildHistoryRoundTrip(t *testing.T) {
	svc, _, _ := newTestDataLayer()
	ctx := context.Background()

	_, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-rt"})
	assert.NoError(t, err)

	_, err = svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-rt",
		Metadata: historyMetadata(
			[2]string{"user", "q1"},
			[2]string{"assistant", "r1"},
			[2]string{"user", "q2"},
			[2]string{"assistant", "r2"},
		),
	})
	assert.NoError(t, err)

	res, err := svc.GetThread(ctx, "t-rt")
	assert.NoError(t, err)
	if assert.NotNil(t, res) && assert.Len(t, res.Steps, 4) {
		steps := make([]*entity.Step, len(res.Steps))
		for i, s := range res.Steps {
			steps[i] = &entity.Step{Id: s.Id, Type: s.Type, Output: s.Output}
		}
		history := svc.RebuildHistory(steps)

		if assert.Len(t, history, 4) {
			assert.Equal(t, "user", history[0].Role)
			assert.Equal(t, "q1", history[0].Content)
			assert.Equal(t, "assistant", history[3].Role)
			assert.Equal(t, "r2", history[3].Content)
		}
	}
}

func TestRebuildHistoryOrderBeyondTenSteps(t *testing.T) {
	svc, _, _ := newTestDataLayer()
	ctx := context.Background()

	_, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-long"})
	assert.NoError(t, err)

	// Six exchanges: twelve steps, so ordering must hold past -step-9 where a
	// lexicographic id sort would interleave -step-10 and -step-11 early.
	var pairs [][2]string
	var want []string
	for i := 1; i <= 6; i++ {
		q := fmt.Sprintf("q%d", i)
		r := fmt.Sprintf("r%d", i)
		pairs = append(pairs, [2]string{"user", q}, [2]string{"assistant", r})
		want = append(want, q, r)
	}

	_, err = svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-long",
		Metadata: historyMetadata(pairs...),
	})
	assert.NoError(t, err)

	res, err := svc.GetThread(ctx, "t-long")
	assert.NoError(t, err)
	if assert.NotNil(t, res) && assert.Len(t, res.Steps, 12) {
		got := make([]string, len(res.Steps))
		for i, s := range res.Steps {
			got[i] = s.Output
		}
		assert.Equal(t, want, got)
	}

	resumed, err := svc.ResumeThread(ctx, "sess-long", "t-long")
	assert.NoError(t, err)
	if assert.NotNil(t, resumed) && assert.Len(t, resumed.History, 12) {
		for i, msg := range resumed.History {
			assert.Equal(t, want[i], msg.Content)
		}
	}
}

func TestDeleteThreadHidesFromListingOnly(t *testing.T) {
	svc, _, _ := newTestDataLayer()
	ctx := context.Background()

	_, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-keep"})
	assert.NoError(t, err)
	_, err = svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-gone"})
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteThread(ctx, "t-gone"))

	list, err := svc.ListThreads(ctx, &dto.Pagination{}, &dto.ThreadFilter{})
	assert.NoError(t, err)
	if assert.Len(t, list.Data, 1) {
		assert.Equal(t, "t-keep", list.Data[0].Id)
	}
	assert.False(t, list.PageInfo.HasNextPage)

	// Direct fetch still resolves the deleted thread.
	got, err := svc.GetThread(ctx, "t-gone")
	assert.NoError(t, err)
	assert.NotNil(t, got)
}

func TestGetThreadUnknownIsNil(t *testing.T) {
	svc, _, _ := newTestDataLayer()

	got, err := svc.GetThread(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetThreadAuthor(t *testing.T) {
	svc, _, _ := newTestDataLayer()

	author, err := svc.GetThreadAuthor(context.Background(), "whatever")
	assert.NoError(t, err)
	assert.Equal(t, "admin", author)
}

func TestResumeThreadPublishesSessionContext(t *testing.T) {
	svc, _, sessionRepo := newTestDataLayer()
	ctx := context.Background()

	_, err := svc.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: "t-res"})
	assert.NoError(t, err)
	_, err = svc.UpdateThread(ctx, &dto.UpdateThreadRequest{
		ThreadId: "t-res",
		Metadata: historyMetadata(
			[2]string{"user", "q1"},
			[2]string{"assistant", "r1"},
		),
	})
	assert.NoError(t, err)

	res, err := svc.ResumeThread(ctx, "sess-1", "t-res")
	assert.NoError(t, err)
	if assert.NotNil(t, res) {
		assert.Equal(t, "t-res", res.ThreadId)
		assert.Len(t, res.History, 2)
	}

	sess, found := sessionRepo.Get("sess-1")
	if assert.True(t, found) {
		assert.Equal(t, "t-res", sess.ThreadID)
		assert.Len(t, sess.History, 2)
	}

	// Resuming an unknown thread is a nil response, not an error.
	res, err = svc.ResumeThread(ctx, "sess-1", "missing")
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestCreateStepBuffersPending(t *testing.T) {
	svc, _, sessionRepo := newTestDataLayer()
	ctx := context.Background()

	now := time.Now().UTC()
	err := svc.CreateStep(ctx, &dto.CreateStepRequest{
		ThreadId:  "t-buf",
		Name:      "user",
		Type:      "user_message",
		Output:    "hello",
		CreatedAt: &now,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, sessionRepo.PendingStepCount("t-buf"))

	drained := sessionRepo.DrainPendingSteps("t-buf")
	if assert.Len(t, drained, 1) {
		assert.Equal(t, "hello", drained[0].Output)
		assert.NotEmpty(t, drained[0].Id)
	}
	assert.Equal(t, 0, sessionRepo.PendingStepCount("t-buf"))
}
