package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of staff roles inside a tenant database.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleBot            Role = "bot"
	RoleQualityControl Role = "quality_control"
)

// ParseRole normalizes a stored role string. The legacy data set mixes
// "quality_controll" and "quality_control"; both map to RoleQualityControl.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, true
	case "manager":
		return RoleManager, true
	case "bot":
		return RoleBot, true
	case "quality_control", "quality_controll":
		return RoleQualityControl, true
	default:
		return Role(raw), false
	}
}

// Direction classifies a stored message relative to the tenant.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionUnknown  Direction = "unknown"
)

// DetermineDirection infers message direction from provider hints. The echo
// flag wins when present; otherwise the status field is consulted; with
// neither the direction is unknown and the message is still stored.
// The returned status string is persisted for observability.
func DetermineDirection(isEcho *bool, status string) (Direction, string) {
	if isEcho != nil {
		if *isEcho {
			return DirectionOutbound, "outgoing"
		}
		return DirectionInbound, "incoming"
	}
	switch status {
	case "inbound":
		return DirectionInbound, "incoming"
	case "":
		return DirectionUnknown, "unknown"
	default:
		return DirectionOutbound, status
	}
}

// ContentPart is one typed segment of a message body. Type is "text" for
// plain text; attachment parts carry the provider's declared message type
// (image, video, audio, document, ...).
type ContentPart struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// CanonicalContent serializes parts in the canonical form used both for
// storage and for content-equality deduplication.
func CanonicalContent(parts []ContentPart) []byte {
	raw, _ := json.Marshal(parts)
	return raw
}

// Channel is a messaging endpoint (phone number, bot account) on a transport.
type Channel struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"`
}

// Chat is a conversation thread on a channel. IDs are canonical UUID strings
// because the provider mixes UUID and opaque numeric chat ids.
type Chat struct {
	ID        string     `json:"id"`
	ChannelID uuid.UUID  `json:"channel_id"`
	Name      string     `json:"name"`
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
}

// Client is an end-customer contact record owned by the tenant.
type Client struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	ChatKey           string    `json:"chat_key,omitempty"` // external chat identifier from contact events
	ResponsibleUserID uuid.UUID `json:"responsible_user_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// Message is an immutable stored message. Never mutated or deleted by the
// ingestion pipeline.
type Message struct {
	ID              uuid.UUID     `json:"id"`
	ChatID          string        `json:"chat_id"`
	Content         []ContentPart `json:"content"`
	Direction       Direction     `json:"direction"`
	DirectionStatus string        `json:"direction_status"`
	IsEcho          *bool         `json:"is_echo,omitempty"`
	AuthorUserID    *uuid.UUID    `json:"author_user_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Text returns the first text-typed part, or "".
func (m *Message) Text() string {
	for _, part := range m.Content {
		if part.Type == "text" {
			return part.Content
		}
	}
	return ""
}

// User is a staff account (human or bot) inside a tenant database.
type User struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    Role      `json:"role"`
	HookURL string    `json:"hook_url,omitempty"`
	Active  bool      `json:"active"`
}

// IsBot reports whether the account is an automated responder with a
// configured callback endpoint.
func (u *User) IsBot() bool {
	return u.Role == RoleBot
}

// Responsibility links a client to its single current responsible assignee.
type Responsibility struct {
	UserID   uuid.UUID `json:"user_id"`
	ClientID uuid.UUID `json:"client_id"`
}

// Transfer is an audit record appended on every responsibility reassignment.
type Transfer struct {
	ID         int64      `json:"id"`
	ChatID     string     `json:"chat_id"`
	FromUserID *uuid.UUID `json:"from_user_id,omitempty"`
	ToUserID   uuid.UUID  `json:"to_user_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
