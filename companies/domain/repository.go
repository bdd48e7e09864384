package domain

import (
	"context"

	"github.com/google/uuid"
)

type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Create(ctx context.Context, company *Company) error
	List(ctx context.Context) ([]*Company, error)
}
