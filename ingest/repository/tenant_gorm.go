package repository

import (
	"context"
	"strings"

	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantGormStore implements domain.TenantStore over one tenant database
// connection. Bind a fresh store per webhook batch.
type TenantGormStore struct {
	db *gorm.DB
}

func NewTenantGormStore(db *gorm.DB) *TenantGormStore {
	return &TenantGormStore{db: db}
}

func (s *TenantGormStore) InitSchema(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&channelModel{},
		&chatModel{},
		&clientModel{},
		&messageModel{},
		&userModel{},
		&responsibilityModel{},
		&transferModel{},
	)
}

// --- Channels ---

func (s *TenantGormStore) GetChannel(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	var m channelModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", ident.ToBytes(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrChannelNotFound
		}
		return nil, err
	}
	channelID, err := ident.FromBytes(m.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Channel{ID: channelID, Type: m.Type}, nil
}

// EnsureChannel creates the channel on first reference and corrects the
// transport type when a later event disagrees with the stored value.
func (s *TenantGormStore) EnsureChannel(ctx context.Context, id uuid.UUID, transport string) error {
	idBytes := ident.ToBytes(id)

	var m channelModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", idBytes).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		return s.db.WithContext(ctx).Create(&channelModel{ID: idBytes, Type: transport}).Error
	case err != nil:
		return err
	}

	if m.Type != transport {
		return s.db.WithContext(ctx).Model(&channelModel{}).
			Where("id = ?", idBytes).
			Update("type", transport).Error
	}
	return nil
}

// --- Chats ---

func (s *TenantGormStore) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	var m chatModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return fromChatModel(m)
}

func (s *TenantGormStore) UpsertChat(ctx context.Context, id string, channelID uuid.UUID, nameHint string, clientID *uuid.UUID) error {
	nameHint = strings.TrimSpace(nameHint)

	var m chatModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		name := nameHint
		if name == "" {
			name = id
		}
		record := chatModel{ID: id, ChannelID: ident.ToBytes(channelID), Name: name}
		if clientID != nil {
			record.ClientID = ident.ToBytes(*clientID)
		}
		return s.db.WithContext(ctx).Create(&record).Error
	case err != nil:
		return err
	}

	updates := map[string]any{}
	if nameHint != "" && m.Name != nameHint {
		updates["name"] = nameHint
	}
	if clientID != nil {
		wanted := ident.ToBytes(*clientID)
		if string(m.ClientID) != string(wanted) {
			updates["client_id"] = wanted
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&chatModel{}).Where("id = ?", id).Updates(updates).Error
}

func fromChatModel(m chatModel) (*domain.Chat, error) {
	channelID, err := ident.FromBytes(m.ChannelID)
	if err != nil {
		return nil, err
	}
	chat := &domain.Chat{ID: m.ID, ChannelID: channelID, Name: m.Name}
	if len(m.ClientID) > 0 {
		clientID, err := ident.FromBytes(m.ClientID)
		if err != nil {
			return nil, err
		}
		chat.ClientID = &clientID
	}
	return chat, nil
}
