package service

import (
	"context"
	"fmt"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IDataLayerService is the persistence surface consumed by the chat UI
// collaborator: it reconciles in-memory conversations into normalized thread
// and step records and reconstructs them on resume.
//
// The service deliberately keeps no in-memory registry of threads: every
// operation reads fresh from the storage engine, so there is no
// read-after-write staleness. It is still not safe for two writers racing on
// the same thread id; last write wins (documented limitation, single-writer
// deployment assumed).
type IDataLayerService interface {
	UpdateThread(ctx context.Context, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error)
	CreateStep(ctx context.Context, req *dto.CreateStepRequest) error
	ListThreads(ctx context.Context, pagination *dto.Pagination, filter *dto.ThreadFilter) (*dto.ThreadListResponse, error)
	GetThread(ctx context.Context, threadId string) (*dto.ThreadResponse, error)
	DeleteThread(ctx context.Context, threadId string) error
	GetThreadAuthor(ctx context.Context, threadId string) (string, error)
	ResumeThread(ctx context.Context, sessionId, threadId string) (*dto.ResumeThreadResponse, error)
	RebuildHistory(steps []*entity.Step) []llm.Message
}

type dataLayerService struct {
	uowFactory  unitofwork.RepositoryFactory
	sessionRepo *memory.SessionRepository
	publisher   message.Publisher
	log         logger.ILogger
}

func NewDataLayerService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	publisher message.Publisher,
	log logger.ILogger,
) IDataLayerService {
	return &dataLayerService{
		uowFactory:  uowFactory,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		log:         log,
	}
}

// UpdateThread applies a candidate set of field updates to a thread and
// re-derives its persisted steps from metadata.message_history. An unknown
// thread id synthesizes a fresh thread record owned by the constant principal.
func (s *dataLayerService) UpdateThread(ctx context.Context, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Soft-deleted threads remain addressable by id, so the lookup is
	// unscoped: updating one revives nothing but must not fork a duplicate.
	thread, err := uow.ThreadRepository().FindOneUnscoped(ctx, req.ThreadId)
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", req.ThreadId, err)
	}

	if thread == nil {
		return s.createThread(ctx, uow, req)
	}

	if req.Name != nil {
		thread.Name = *req.Name
	}
	if req.UserId != nil {
		thread.UserId = *req.UserId
	}
	if req.Metadata != nil {
		thread.Metadata = req.Metadata
	}
	if req.Tags != nil {
		thread.Tags = req.Tags
	}

	turns, err := parseMessageHistory(thread.Metadata)
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", thread.Id, err)
	}

	ordered, dropped := interleaveTurns(turns)
	steps := deriveSteps(thread, ordered)
	if dropped > 0 {
		s.log.Warn("datalayer", "Unpaired trailing turns dropped during reconciliation", map[string]interface{}{
			"thread_id": thread.Id,
			"dropped":   dropped,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ThreadRepository().Upsert(ctx, thread); err != nil {
		return nil, fmt.Errorf("upsert thread %s: %w", thread.Id, err)
	}
	if err := uow.StepRepository().UpsertBatch(ctx, steps); err != nil {
		return nil, fmt.Errorf("upsert steps for thread %s: %w", thread.Id, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Publish the reconstructed history and active thread id into the
	// session context so a resumed conversation continues seamlessly.
	if req.SessionId != "" {
		s.publishSessionContext(req.SessionId, thread.Id, steps)
	}

	s.publish(events.TopicThreadUpdated, events.NewThreadUpdatedEvent(thread.Id, len(steps), dropped))

	thread.Steps = steps
	return threadToResponse(thread), nil
}

func (s *dataLayerService) createThread(ctx context.Context, uow unitofwork.UnitOfWork, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error) {
	thread := &entity.Thread{
		Id:             req.ThreadId,
		CreatedAt:      time.Now().UTC(),
		UserIdentifier: constant.DefaultPrincipal,
		Metadata:       req.Metadata,
		Tags:           req.Tags,
	}
	if req.Name != nil {
		thread.Name = *req.Name
	}
	if req.UserId != nil {
		thread.UserId = *req.UserId
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// A synthesized thread persists with no steps, even when the request
	// already carries a message_history. Steps only materialize once an
	// update reconciles an existing thread.
	if err := uow.ThreadRepository().Upsert(ctx, thread); err != nil {
		return nil, fmt.Errorf("create thread %s: %w", thread.Id, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publish(events.TopicThreadUpdated, events.NewThreadUpdatedEvent(thread.Id, 0, 0))

	s.log.Info("datalayer", "Thread created", map[string]interface{}{"thread_id": thread.Id})
	return threadToResponse(thread), nil
}

// CreateStep buffers one raw turn for its thread. Buffered steps are flushed
// at the next user-message boundary rather than persisted per event; durable
// step records come from reconciliation, never from this buffer.
func (s *dataLayerService) CreateStep(ctx context.Context, req *dto.CreateStepRequest) error {
	step := &entity.Step{
		Id:       uuid.NewString(),
		ThreadId: req.ThreadId,
		Name:     req.Name,
		Type:     req.Type,
		Output:   req.Output,
	}
	if req.CreatedAt != nil {
		step.CreatedAt = *req.CreatedAt
	}

	s.sessionRepo.AppendPendingStep(req.ThreadId, step)
	s.publish(events.TopicStepCreated, events.NewStepCreatedEvent(req.ThreadId, step.Id))
	return nil
}

// ListThreads returns every non-deleted thread. Listing is single-page:
// pagination and cursor arguments are accepted for collaborator compatibility
// but HasNextPage is always false.
func (s *dataLayerService) ListThreads(ctx context.Context, pagination *dto.Pagination, filter *dto.ThreadFilter) (*dto.ThreadListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if filter != nil && filter.UserId != "" {
		specs = append(specs, specification.OwnedBy{UserID: filter.UserId})
	}

	threads, err := uow.ThreadRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	data := make([]dto.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		data = append(data, *threadToResponse(t))
	}

	return &dto.ThreadListResponse{
		Data:     data,
		PageInfo: dto.PageInfo{HasNextPage: false},
	}, nil
}

// GetThread reads the thread fresh from storage with its steps attached, or
// nil when absent. Direct fetch is unscoped: a soft-deleted thread is hidden
// from listing but still resolvable by id.
func (s *dataLayerService) GetThread(ctx context.Context, threadId string) (*dto.ThreadResponse, error) {
	thread, err := s.loadThread(ctx, threadId)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, nil
	}
	return threadToResponse(thread), nil
}

func (s *dataLayerService) loadThread(ctx context.Context, threadId string) (*entity.Thread, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread, err := uow.ThreadRepository().FindOneUnscoped(ctx, threadId)
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", threadId, err)
	}
	if thread == nil {
		return nil, nil
	}

	// Reconciled steps of one thread share a created_at, so conversation
	// order comes from the persisted ordinal.
	steps, err := uow.StepRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "ordinal", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("get steps for thread %s: %w", threadId, err)
	}

	thread.Steps = steps
	return thread, nil
}

// DeleteThread soft-deletes: the row keeps its data and steps, it only stops
// appearing in listings.
func (s *dataLayerService) DeleteThread(ctx context.Context, threadId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.ThreadRepository().Delete(ctx, threadId); err != nil {
		return fmt.Errorf("delete thread %s: %w", threadId, err)
	}

	s.log.Info("datalayer", "Thread soft-deleted", map[string]interface{}{"thread_id": threadId})
	return nil
}

func (s *dataLayerService) GetThreadAuthor(ctx context.Context, threadId string) (string, error) {
	// Single-tenant deployment: no per-thread owner lookup.
	return constant.DefaultPrincipal, nil
}

// ResumeThread rebuilds the role-tagged history from a thread's stored steps
// and publishes it into the session context for the next completion call.
func (s *dataLayerService) ResumeThread(ctx context.Context, sessionId, threadId string) (*dto.ResumeThreadResponse, error) {
	thread, err := s.loadThread(ctx, threadId)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, nil
	}

	s.publishSessionContext(sessionId, thread.Id, thread.Steps)

	history := s.RebuildHistory(thread.Steps)
	return &dto.ResumeThreadResponse{
		ThreadId: thread.Id,
		History:  history,
	}, nil
}

// RebuildHistory maps stored steps back to the role/content sequence expected
// by the completion provider. A step with an unrecognized type tag is skipped
// and logged, never fatal.
func (s *dataLayerService) RebuildHistory(steps []*entity.Step) []llm.Message {
	history := make([]llm.Message, 0, len(steps))
	for _, st := range steps {
		switch st.Type {
		case constant.StepTypeUserMessage:
			history = append(history, llm.Message{Role: constant.ChatRoleUser, Content: st.Output})
		case constant.StepTypeAssistantMessage:
			history = append(history, llm.Message{Role: constant.ChatRoleAssistant, Content: st.Output})
		default:
			s.log.Warn("datalayer", "Skipping step with unrecognized type", map[string]interface{}{
				"step_id": st.Id,
				"type":    st.Type,
			})
		}
	}
	return history
}

func (s *dataLayerService) publishSessionContext(sessionId, threadId string, steps []*entity.Step) {
	sess, found := s.sessionRepo.Get(sessionId)
	if !found {
		sess = &store.Session{ID: sessionId}
	}
	sess.ThreadID = threadId
	sess.History = s.RebuildHistory(steps)
	s.sessionRepo.Save(sess)
}

func (s *dataLayerService) publish(topic string, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := events.Publish(s.publisher, topic, ev); err != nil {
		s.log.Warn("datalayer", "Failed to publish event", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
	}
}

// DTO mapping

func threadToResponse(t *entity.Thread) *dto.ThreadResponse {
	steps := make([]dto.StepResponse, 0, len(t.Steps))
	for _, st := range t.Steps {
		steps = append(steps, dto.StepResponse{
			Id:        st.Id,
			ThreadId:  st.ThreadId,
			Name:      st.Name,
			CreatedAt: st.CreatedAt,
			Type:      st.Type,
			Output:    st.Output,
		})
	}

	return &dto.ThreadResponse{
		Id:             t.Id,
		Name:           t.Name,
		CreatedAt:      t.CreatedAt,
		UserId:         t.UserId,
		UserIdentifier: t.UserIdentifier,
		Tags:           t.Tags,
		Steps:          steps,
	}
}
