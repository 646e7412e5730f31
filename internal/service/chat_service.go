package service

import (
	"context"
	"fmt"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/store"

	"github.com/google/uuid"
)

const threadNameMaxLen = 50

// IChatService drives the conversation loop: it owns the session context,
// streams completions from the model provider, and hands every finished
// user/assistant exchange to the data layer for reconciliation.
type IChatService interface {
	CreateSession(ctx context.Context, userId string) (*dto.CreateChatSessionResponse, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest) error
	SendChat(ctx context.Context, req *dto.SendChatRequest, onToken llm.TokenFunc) (*dto.SendChatResponse, error)
	Resume(ctx context.Context, req *dto.ResumeThreadRequest) (*dto.ResumeThreadResponse, error)
}

type chatService struct {
	llmProvider llm.LLMProvider
	dataLayer   IDataLayerService
	sessionRepo *memory.SessionRepository
	log         logger.ILogger
}

func NewChatService(
	llmProvider llm.LLMProvider,
	dataLayer IDataLayerService,
	sessionRepo *memory.SessionRepository,
	log logger.ILogger,
) IChatService {
	return &chatService{
		llmProvider: llmProvider,
		dataLayer:   dataLayer,
		sessionRepo: sessionRepo,
		log:         log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId string) (*dto.CreateChatSessionResponse, error) {
	sess := &store.Session{
		ID:     uuid.NewString(),
		UserID: userId,
	}
	s.sessionRepo.Save(sess)

	s.log.Info("chat", "Session created", map[string]interface{}{"session_id": sess.ID})
	return &dto.CreateChatSessionResponse{SessionId: sess.ID}, nil
}

// UpdateSettings swaps the model used by subsequent completions in this
// session. The running history is untouched.
func (s *chatService) UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest) error {
	sess, found := s.sessionRepo.Get(req.SessionId)
	if !found {
		return fmt.Errorf("session %s not found", req.SessionId)
	}

	sess.ModelName = req.ModelName
	s.sessionRepo.Save(sess)

	s.log.Info("chat", "Session model updated", map[string]interface{}{
		"session_id": req.SessionId,
		"model":      req.ModelName,
	})
	return nil
}

// SendChat runs one full exchange: append the user turn, stream the
// completion (onToken may be nil for non-streaming callers), append the
// assistant turn, then reconcile the thread so storage reflects the
// conversation up to and including this exchange.
func (s *chatService) SendChat(ctx context.Context, req *dto.SendChatRequest, onToken llm.TokenFunc) (*dto.SendChatResponse, error) {
	sess, found := s.sessionRepo.Get(req.SessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", req.SessionId)
	}

	isNewThread := sess.ThreadID == ""
	if isNewThread {
		sess.ThreadID = uuid.NewString()
		// Register the thread before the exchange so the post-exchange
		// reconciliation updates an existing record; a fresh thread always
		// persists without steps.
		if _, err := s.dataLayer.UpdateThread(ctx, &dto.UpdateThreadRequest{ThreadId: sess.ThreadID}); err != nil {
			return nil, err
		}
	}

	// A user message marks a turn boundary: whatever steps the previous
	// exchange buffered are superseded by the reconciled history.
	if drained := s.sessionRepo.DrainPendingSteps(sess.ThreadID); len(drained) > 0 {
		s.log.Debug("chat", "Flushed pending step buffer", map[string]interface{}{
			"thread_id": sess.ThreadID,
			"count":     len(drained),
		})
	}

	now := time.Now().UTC()
	sess.History = append(sess.History, llm.Message{Role: constant.ChatRoleUser, Content: req.Content})

	if err := s.dataLayer.CreateStep(ctx, &dto.CreateStepRequest{
		ThreadId:  sess.ThreadID,
		Name:      constant.ChatRoleUser,
		Type:      constant.StepTypeUserMessage,
		Output:    req.Content,
		CreatedAt: &now,
	}); err != nil {
		return nil, err
	}

	opts := []llm.Option{
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(500),
	}
	if sess.ModelName != "" {
		opts = append(opts, llm.WithModel(sess.ModelName))
	}

	reply, err := s.llmProvider.ChatStream(ctx, sess.History, onToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	sess.History = append(sess.History, llm.Message{Role: constant.ChatRoleAssistant, Content: reply})
	s.sessionRepo.Save(sess)

	replyAt := time.Now().UTC()
	if err := s.dataLayer.CreateStep(ctx, &dto.CreateStepRequest{
		ThreadId:  sess.ThreadID,
		Name:      constant.ChatRoleAssistant,
		Type:      constant.StepTypeAssistantMessage,
		Output:    reply,
		CreatedAt: &replyAt,
	}); err != nil {
		return nil, err
	}

	if err := s.reconcileThread(ctx, sess, isNewThread, req.Content); err != nil {
		// The exchange already happened; a persistence failure must not eat
		// the reply.
		s.log.Error("chat", "Thread reconciliation failed", map[string]interface{}{
			"thread_id": sess.ThreadID,
			"error":     err.Error(),
		})
	}

	return &dto.SendChatResponse{
		ThreadId:  sess.ThreadID,
		Reply:     reply,
		CreatedAt: replyAt,
	}, nil
}

func (s *chatService) Resume(ctx context.Context, req *dto.ResumeThreadRequest) (*dto.ResumeThreadResponse, error) {
	if _, found := s.sessionRepo.Get(req.SessionId); !found {
		s.sessionRepo.Save(&store.Session{ID: req.SessionId})
	}
	return s.dataLayer.ResumeThread(ctx, req.SessionId, req.ThreadId)
}

func (s *chatService) reconcileThread(ctx context.Context, sess *store.Session, isNewThread bool, firstContent string) error {
	update := &dto.UpdateThreadRequest{
		ThreadId:  sess.ThreadID,
		SessionId: sess.ID,
		Metadata: map[string]interface{}{
			constant.MetadataKeyMessageHistory: historyToMetadata(sess.History),
		},
	}
	if sess.UserID != "" {
		update.UserId = &sess.UserID
	}
	// First exchange names the thread after the opening message.
	if isNewThread || len(sess.History) == 2 {
		name := truncateName(firstContent)
		update.Name = &name
	}

	_, err := s.dataLayer.UpdateThread(ctx, update)
	return err
}

// historyToMetadata re-encodes typed messages as generic maps, matching the
// shape metadata takes after a JSON round-trip through storage.
func historyToMetadata(history []llm.Message) []map[string]interface{} {
	out := make([]map[string]interface{}, len(history))
	for i, m := range history {
		out[i] = map[string]interface{}{
			"role":    m.Role,
			"content": m.Content,
		}
	}
	return out
}

func truncateName(content string) string {
	runes := []rune(content)
	if len(runes) <= threadNameMaxLen {
		return content
	}
	return string(runes[:threadNameMaxLen]) + "..."
}
