package mapper

import (
	"encoding/json"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ThreadMapper struct{}

func NewThreadMapper() *ThreadMapper {
	return &ThreadMapper{}
}

// Thread Mappers

func (m *ThreadMapper) ThreadToEntity(t *model.Thread) *entity.Thread {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		dt := t.DeletedAt.Time
		deletedAt = &dt
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		ut := t.UpdatedAt
		updatedAt = &ut
	}

	var metadata map[string]interface{}
	if len(t.Metadata) > 0 {
		// Malformed stored metadata degrades to nil rather than failing a read.
		_ = json.Unmarshal(t.Metadata, &metadata)
	}

	var tags []string
	if len(t.Tags) > 0 {
		_ = json.Unmarshal(t.Tags, &tags)
	}

	return &entity.Thread{
		Id:             t.Id,
		Name:           t.Name,
		CreatedAt:      t.CreatedAt,
		UserId:         t.UserId,
		UserIdentifier: t.UserIdentifier,
		Metadata:       metadata,
		Tags:           tags,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      t.DeletedAt.Valid,
	}
}

func (m *ThreadMapper) ThreadToModel(t *entity.Thread) *model.Thread {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	var metadata datatypes.JSON
	if t.Metadata != nil {
		if raw, err := json.Marshal(t.Metadata); err == nil {
			metadata = raw
		}
	}

	var tags datatypes.JSON
	if t.Tags != nil {
		if raw, err := json.Marshal(t.Tags); err == nil {
			tags = raw
		}
	}

	return &model.Thread{
		Id:             t.Id,
		Name:           t.Name,
		CreatedAt:      t.CreatedAt,
		UserId:         t.UserId,
		UserIdentifier: t.UserIdentifier,
		Metadata:       metadata,
		Tags:           tags,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

// Step Mappers

func (m *ThreadMapper) StepToEntity(s *model.Step) *entity.Step {
	if s == nil {
		return nil
	}

	return &entity.Step{
		Id:        s.Id,
		ThreadId:  s.ThreadId,
		Name:      s.Name,
		Ordinal:   s.Ordinal,
		CreatedAt: s.CreatedAt,
		Type:      s.Type,
		Output:    s.Output,
	}
}

func (m *ThreadMapper) StepToModel(s *entity.Step) *model.Step {
	if s == nil {
		return nil
	}

	return &model.Step{
		Id:        s.Id,
		ThreadId:  s.ThreadId,
		Name:      s.Name,
		Ordinal:   s.Ordinal,
		CreatedAt: s.CreatedAt,
		Type:      s.Type,
		Output:    s.Output,
	}
}

func (m *ThreadMapper) StepsToEntities(models []*model.Step) []*entity.Step {
	entities := make([]*entity.Step, len(models))
	for i, s := range models {
		entities[i] = m.StepToEntity(s)
	}
	return entities
}
