package events

import "time"

// In-process bus topics consumed by the consumer service.
const (
	TopicStepCreated   = "chat.step.created"
	TopicThreadUpdated = "chat.thread.updated"
)

func NewStepCreatedEvent(threadID, stepID string) Event {
	return BaseEvent{
		Type: "STEP_CREATED",
		Data: map[string]interface{}{
			"thread_id": threadID,
			"step_id":   stepID,
		},
		OccurredAt: time.Now(),
	}
}

// NewThreadUpdatedEvent records one reconciliation pass: how many steps were
// persisted and how many trailing turns the pair-zip dropped.
func NewThreadUpdatedEvent(threadID string, persistedSteps, droppedTurns int) Event {
	return BaseEvent{
		Type: "THREAD_UPDATED",
		Data: map[string]interface{}{
			"thread_id":       threadID,
			"persisted_steps": persistedSteps,
			"dropped_turns":   droppedTurns,
		},
		OccurredAt: time.Now(),
	}
}
