package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-crm/companies/domain"
	"github.com/AzielCF/az-crm/pkg/ident"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type companyModel struct {
	ID           []byte    `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	DatabaseName string    `gorm:"uniqueIndex;not null"`
	APIKey       string    `gorm:"column:api_key"`
	Active       bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (companyModel) TableName() string {
	return "companies"
}

// --- Repository Implementation ---

type CompanyGormRepository struct {
	db *gorm.DB
}

func NewCompanyGormRepository(db *gorm.DB) *CompanyGormRepository {
	return &CompanyGormRepository{db: db}
}

func (r *CompanyGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&companyModel{})
}

func (r *CompanyGormRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var m companyModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", ident.ToBytes(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}
	return fromCompanyModel(m)
}

func (r *CompanyGormRepository) Create(ctx context.Context, company *domain.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&companyModel{
		ID:           ident.ToBytes(company.ID),
		Name:         company.Name,
		DatabaseName: company.DatabaseName,
		APIKey:       company.APIKey,
		Active:       company.Active,
		CreatedAt:    company.CreatedAt,
	}).Error
}

func (r *CompanyGormRepository) List(ctx context.Context) ([]*domain.Company, error) {
	var models []companyModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	companies := make([]*domain.Company, 0, len(models))
	for _, m := range models {
		c, err := fromCompanyModel(m)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, nil
}

func fromCompanyModel(m companyModel) (*domain.Company, error) {
	id, err := ident.FromBytes(m.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Company{
		ID:           id,
		Name:         m.Name,
		DatabaseName: m.DatabaseName,
		APIKey:       m.APIKey,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
	}, nil
}
