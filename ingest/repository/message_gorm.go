package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *TenantGormStore) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var m messageModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", ident.ToBytes(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return fromMessageModel(m)
}

func (s *TenantGormStore) MessageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("id = ?", ident.ToBytes(id)).
		Count(&count).Error
	return count > 0, err
}

// ChatHasContent compares against the canonical serialization stored in the
// content column, so equality is exact byte equality.
func (s *TenantGormStore) ChatHasContent(ctx context.Context, chatID string, canonical []byte) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&messageModel{}).
		Where("chat_id = ? AND content = ?", chatID, string(canonical)).
		Count(&count).Error
	return count > 0, err
}

func (s *TenantGormStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	model := messageModel{
		ID:              ident.ToBytes(message.ID),
		ChatID:          message.ChatID,
		Content:         string(domain.CanonicalContent(message.Content)),
		Direction:       string(message.Direction),
		DirectionStatus: message.DirectionStatus,
		IsEcho:          message.IsEcho,
		CreatedAt:       message.CreatedAt,
	}
	if message.AuthorUserID != nil {
		model.AuthorUserID = ident.ToBytes(*message.AuthorUserID)
	}

	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *TenantGormStore) CountMessages(ctx context.Context, chatID string) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&messageModel{})
	if chatID != "" {
		query = query.Where("chat_id = ?", chatID)
	}
	err := query.Count(&count).Error
	return count, err
}

func fromMessageModel(m messageModel) (*domain.Message, error) {
	id, err := ident.FromBytes(m.ID)
	if err != nil {
		return nil, err
	}

	var parts []domain.ContentPart
	if m.Content != "" {
		if err := json.Unmarshal([]byte(m.Content), &parts); err != nil {
			return nil, err
		}
	}

	message := &domain.Message{
		ID:              id,
		ChatID:          m.ChatID,
		Content:         parts,
		Direction:       domain.Direction(m.Direction),
		DirectionStatus: m.DirectionStatus,
		IsEcho:          m.IsEcho,
		CreatedAt:       m.CreatedAt,
	}
	if len(m.AuthorUserID) > 0 {
		author, err := ident.FromBytes(m.AuthorUserID)
		if err != nil {
			return nil, err
		}
		message.AuthorUserID = &author
	}
	return message, nil
}
