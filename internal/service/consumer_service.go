package service

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// IConsumerService aggregates diagnostics counters from the in-process event
// bus. Counters are monotonic for the life of the process; they replace the
// global step counter the conversation layer used to mutate inline.
type IConsumerService interface {
	Consume(ctx context.Context) error
	Stats() *dto.ReconcileStatsResponse
}

type consumerService struct {
	subscriber message.Subscriber
	log        logger.ILogger

	stepsCreated      atomic.Int64
	threadsReconciled atomic.Int64
	turnsDropped      atomic.Int64
}

func NewConsumerService(subscriber message.Subscriber, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		log:        log,
	}
}

// Consume subscribes to both chat topics and blocks until ctx is cancelled.
func (s *consumerService) Consume(ctx context.Context) error {
	stepMsgs, err := s.subscriber.Subscribe(ctx, events.TopicStepCreated)
	if err != nil {
		return err
	}
	threadMsgs, err := s.subscriber.Subscribe(ctx, events.TopicThreadUpdated)
	if err != nil {
		return err
	}

	s.log.Info("consumer", "Event consumer started", nil)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-stepMsgs:
			if !ok {
				return nil
			}
			s.handleStepCreated(msg)
		case msg, ok := <-threadMsgs:
			if !ok {
				return nil
			}
			s.handleThreadUpdated(msg)
		}
	}
}

func (s *consumerService) handleStepCreated(msg *message.Message) {
	defer msg.Ack()

	if _, ok := s.decode(msg); !ok {
		return
	}
	s.stepsCreated.Add(1)
}

func (s *consumerService) handleThreadUpdated(msg *message.Message) {
	defer msg.Ack()

	env, ok := s.decode(msg)
	if !ok {
		return
	}

	s.threadsReconciled.Add(1)
	// JSON numbers decode as float64.
	if dropped, ok := env.Data["dropped_turns"].(float64); ok && dropped > 0 {
		s.turnsDropped.Add(int64(dropped))
		s.log.Warn("consumer", "Reconciliation dropped turns", map[string]interface{}{
			"thread_id": env.Data["thread_id"],
			"dropped":   int64(dropped),
		})
	}
}

func (s *consumerService) decode(msg *message.Message) (*events.Envelope, bool) {
	var env events.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		s.log.Error("consumer", "Malformed event payload", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return nil, false
	}
	return &env, true
}

func (s *consumerService) Stats() *dto.ReconcileStatsResponse {
	return &dto.ReconcileStatsResponse{
		StepsCreated:      s.stepsCreated.Load(),
		ThreadsReconciled: s.threadsReconciled.Load(),
		TurnsDropped:      s.turnsDropped.Load(),
	}
}
