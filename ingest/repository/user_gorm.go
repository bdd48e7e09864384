package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-crm/ingest/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *TenantGormStore) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", ident.ToBytes(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return fromUserModel(m)
}

// CreateUser exists for provisioning and seeding; the webhook pipeline never
// creates staff accounts.
func (s *TenantGormStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(&userModel{
		ID:      ident.ToBytes(user.ID),
		Name:    user.Name,
		Email:   user.Email,
		Role:    string(user.Role),
		HookURL: user.HookURL,
		Active:  user.Active,
	}).Error
}

func (s *TenantGormStore) FindBotUser(ctx context.Context) (*domain.User, error) {
	var m userModel
	err := s.db.WithContext(ctx).
		Where("role = ? AND active = ?", string(domain.RoleBot), true).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return fromUserModel(m)
}

// ListFallbackStaff returns the active humans eligible to take over a chat
// when the bot fails. Bots and quality control (in either legacy spelling)
// are excluded.
func (s *TenantGormStore) ListFallbackStaff(ctx context.Context) ([]*domain.User, error) {
	var rows []userModel
	err := s.db.WithContext(ctx).
		Where("active = ? AND role NOT IN ?", true, []string{
			string(domain.RoleBot),
			string(domain.RoleQualityControl),
			"quality_controll",
		}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	staff := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		user, err := fromUserModel(row)
		if err != nil {
			return nil, err
		}
		staff = append(staff, user)
	}
	return staff, nil
}

func (s *TenantGormStore) GetResponsibleUser(ctx context.Context, clientID uuid.UUID) (*domain.User, error) {
	var r responsibilityModel
	err := s.db.WithContext(ctx).First(&r, "client_id = ?", ident.ToBytes(clientID)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNoResponsible
		}
		return nil, err
	}

	userID, err := ident.FromBytes(r.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// AssignResponsible replaces the client's single assignee, mirrors the change
// on the client row and appends a transfer audit record, all in one
// transaction.
func (s *TenantGormStore) AssignResponsible(ctx context.Context, clientID, userID uuid.UUID, chatID string) error {
	clientBytes := ident.ToBytes(clientID)
	userBytes := ident.ToBytes(userID)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous []byte
		var current responsibilityModel
		err := tx.First(&current, "client_id = ?", clientBytes).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(&responsibilityModel{ClientID: clientBytes, UserID: userBytes}).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			previous = current.UserID
			if err := tx.Model(&responsibilityModel{}).
				Where("client_id = ?", clientBytes).
				Update("user_id", userBytes).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&clientModel{}).
			Where("id = ?", clientBytes).
			Update("responsible_user_id", userBytes).Error; err != nil {
			return err
		}

		return tx.Create(&transferModel{
			ChatID:     chatID,
			FromUserID: previous,
			ToUserID:   userBytes,
			CreatedAt:  time.Now().UTC(),
		}).Error
	})
}

func fromUserModel(m userModel) (*domain.User, error) {
	id, err := ident.FromBytes(m.ID)
	if err != nil {
		return nil, err
	}
	role, _ := domain.ParseRole(m.Role)
	return &domain.User{
		ID:      id,
		Name:    m.Name,
		Email:   m.Email,
		Role:    role,
		HookURL: m.HookURL,
		Active:  m.Active,
	}, nil
}
