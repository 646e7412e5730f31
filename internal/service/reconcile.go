package service

import (
	"encoding/json"
	"fmt"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
)

// parseMessageHistory extracts the role-tagged turn sequence from thread
// metadata. Returns nil when the metadata carries no history.
func parseMessageHistory(metadata map[string]interface{}) ([]entity.Turn, error) {
	raw, ok := metadata[constant.MetadataKeyMessageHistory]
	if !ok || raw == nil {
		return nil, nil
	}

	// The history arrives as generic decoded JSON; round-trip it to get
	// typed turns.
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode message_history: %w", err)
	}
	var turns []entity.Turn
	if err := json.Unmarshal(buf, &turns); err != nil {
		return nil, fmt.Errorf("decode message_history: %w", err)
	}
	return turns, nil
}

// interleaveTurns partitions the sequence into user and assistant turns, each
// preserving relative order, then re-zips them positionally: the i-th user
// turn is followed by the i-th assistant turn. Trailing turns beyond the
// shorter partition are dropped; the dropped count is returned so callers can
// surface the loss.
func interleaveTurns(turns []entity.Turn) ([]entity.Turn, int) {
	var users, assistants []entity.Turn
	for _, t := range turns {
		switch t.Role {
		case constant.ChatRoleUser:
			users = append(users, t)
		case constant.ChatRoleAssistant:
			assistants = append(assistants, t)
		}
	}

	pairs := len(users)
	if len(assistants) < pairs {
		pairs = len(assistants)
	}

	ordered := make([]entity.Turn, 0, 2*pairs)
	for i := 0; i < pairs; i++ {
		ordered = append(ordered, users[i], assistants[i])
	}
	return ordered, len(turns) - len(ordered)
}

// deriveSteps maps an interleaved turn sequence to persisted step records.
// Step ids are deterministic: {threadId}-step-{ordinal}, 0-based. A turn
// without its own timestamp inherits the thread's CreatedAt.
func deriveSteps(thread *entity.Thread, ordered []entity.Turn) []*entity.Step {
	steps := make([]*entity.Step, len(ordered))
	for i, turn := range ordered {
		stepType := constant.StepTypeUserMessage
		stepName := constant.ChatRoleUser
		if turn.Role == constant.ChatRoleAssistant {
			stepType = constant.StepTypeAssistantMessage
			stepName = constant.ChatRoleAssistant
		}

		createdAt := thread.CreatedAt
		if turn.CreatedAt != nil {
			createdAt = *turn.CreatedAt
		}

		steps[i] = &entity.Step{
			Id:        fmt.Sprintf("%s-step-%d", thread.Id, i),
			ThreadId:  thread.Id,
			Name:      stepName,
			Ordinal:   i,
			CreatedAt: createdAt,
			Type:      stepType,
			Output:    turn.Content,
		}
	}
	return steps
}
