package domain

import (
	"context"

	"github.com/google/uuid"
)

// TenantStore is the persistence surface the reconciliation pipeline needs
// inside one tenant database. A store is bound to a single tenant connection
// for the duration of one webhook batch.
type TenantStore interface {
	InitSchema(ctx context.Context) error

	// Channels
	GetChannel(ctx context.Context, id uuid.UUID) (*Channel, error)
	EnsureChannel(ctx context.Context, id uuid.UUID, transport string) error

	// Chats
	GetChat(ctx context.Context, id string) (*Chat, error)
	// UpsertChat creates the chat on first reference and refreshes the
	// display name or client linkage when they differ from stored values.
	UpsertChat(ctx context.Context, id string, channelID uuid.UUID, nameHint string, clientID *uuid.UUID) error

	// Clients
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	FindClientByEmail(ctx context.Context, email string) (*Client, error)
	FindClientByChatKey(ctx context.Context, chatKey string) (*Client, error)
	CreateClient(ctx context.Context, client *Client) error

	// Messages
	GetMessage(ctx context.Context, id uuid.UUID) (*Message, error)
	MessageExists(ctx context.Context, id uuid.UUID) (bool, error)
	// ChatHasContent reports whether any message in the chat already carries
	// byte-identical canonical content.
	ChatHasContent(ctx context.Context, chatID string, canonical []byte) (bool, error)
	CreateMessage(ctx context.Context, message *Message) error
	CountMessages(ctx context.Context, chatID string) (int64, error)

	// Users and responsibility
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	FindBotUser(ctx context.Context) (*User, error)
	// ListFallbackStaff returns active users eligible for bot-failure
	// fallback: every role except bot and quality control.
	ListFallbackStaff(ctx context.Context) ([]*User, error)
	GetResponsibleUser(ctx context.Context, clientID uuid.UUID) (*User, error)
	// AssignResponsible sets the client's single current assignee and appends
	// a transfer audit record.
	AssignResponsible(ctx context.Context, clientID, userID uuid.UUID, chatID string) error
}
