package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is an isolated customer account. Each company owns a logical
// database holding its channels, chats, clients and messages. Ingestion only
// ever reads this record; provisioning mutates it elsewhere.
type Company struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DatabaseName string    `json:"database_name"`
	APIKey       string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateCompanyRequest is the provisioning payload. The API key only travels
// inbound; Company never serializes it back out.
type CreateCompanyRequest struct {
	Name         string `json:"name"`
	DatabaseName string `json:"database_name"`
	APIKey       string `json:"api_key"`
}

func (r *CreateCompanyRequest) ToCompany() *Company {
	return &Company{
		Name:         r.Name,
		DatabaseName: r.DatabaseName,
		APIKey:       r.APIKey,
		Active:       true,
	}
}
