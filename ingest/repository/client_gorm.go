package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *TenantGormStore) GetClient(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var m clientModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", ident.ToBytes(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return fromClientModel(m)
}

func (s *TenantGormStore) FindClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var m clientModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return fromClientModel(m)
}

func (s *TenantGormStore) FindClientByChatKey(ctx context.Context, chatKey string) (*domain.Client, error) {
	var m clientModel
	if err := s.db.WithContext(ctx).Where("chat_key = ?", chatKey).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return fromClientModel(m)
}

// CreateClient inserts the client and, when a responsible user is set, the
// matching responsibility row, keeping the single-assignee invariant.
func (s *TenantGormStore) CreateClient(ctx context.Context, client *domain.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	model := clientModel{
		ID:        ident.ToBytes(client.ID),
		FullName:  client.FullName,
		Email:     client.Email,
		Phone:     client.Phone,
		ChatKey:   client.ChatKey,
		CreatedAt: client.CreatedAt,
	}
	if client.ResponsibleUserID != uuid.Nil {
		model.ResponsibleUserID = ident.ToBytes(client.ResponsibleUserID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if client.ResponsibleUserID != uuid.Nil {
			return tx.Create(&responsibilityModel{
				ClientID: ident.ToBytes(client.ID),
				UserID:   ident.ToBytes(client.ResponsibleUserID),
			}).Error
		}
		return nil
	})
}

func fromClientModel(m clientModel) (*domain.Client, error) {
	id, err := ident.FromBytes(m.ID)
	if err != nil {
		return nil, err
	}
	responsible, err := ident.FromBytes(m.ResponsibleUserID)
	if err != nil {
		return nil, err
	}
	return &domain.Client{
		ID:                id,
		FullName:          m.FullName,
		Email:             m.Email,
		Phone:             m.Phone,
		ChatKey:           m.ChatKey,
		ResponsibleUserID: responsible,
		CreatedAt:         m.CreatedAt,
	}, nil
}
