package domain

import "strings"

// Webhook DTOs mirror the provider's payload shape (camelCase JSON).

// WebhookContact is the optional contact block nested in a message event.
type WebhookContact struct {
	Name      string `json:"name,omitempty"`
	AvatarURI string `json:"avatarUri,omitempty"`
	Username  string `json:"username,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// WebhookMessage is one message event.
type WebhookMessage struct {
	MessageID   string          `json:"messageId"`
	ChannelID   string          `json:"channelId"`
	ChatType    string          `json:"chatType"`
	ChatID      string          `json:"chatId"`
	Type        string          `json:"type"`
	Text        string          `json:"text,omitempty"`
	ContentURI  string          `json:"contentUri,omitempty"`
	ClientName  string          `json:"clientName,omitempty"`
	ClientPhone string          `json:"clientPhone,omitempty"`
	DateTime    string          `json:"dateTime,omitempty"`
	IsEcho      *bool           `json:"isEcho,omitempty"`
	Status      string          `json:"status,omitempty"`
	Contact     *WebhookContact `json:"contact,omitempty"`
	AuthorName  string          `json:"authorName,omitempty"`
	AuthorID    string          `json:"authorId,omitempty"`
}

// WebhookContactEvent is one contact creation/update event.
type WebhookContactEvent struct {
	ContactID string `json:"contactId"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	ChatID    string `json:"chatId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// WebhookRequest is the provider's webhook batch envelope.
type WebhookRequest struct {
	Test     *bool                 `json:"test,omitempty"`
	Messages []WebhookMessage      `json:"messages,omitempty"`
	Contacts []WebhookContactEvent `json:"contacts,omitempty"`
}

// BuildContent derives the canonical ordered content parts for a message
// event. Content is never empty: when neither text nor attachment is present
// a placeholder part tagged with the declared type is emitted so that
// content-equality dedup always has something to compare.
func BuildContent(msg *WebhookMessage) []ContentPart {
	var parts []ContentPart

	if text := strings.TrimSpace(msg.Text); text != "" {
		parts = append(parts, ContentPart{Type: "text", Content: text})
	}
	if uri := strings.TrimSpace(msg.ContentURI); uri != "" {
		partType := strings.TrimSpace(msg.Type)
		if partType == "" || partType == "text" {
			partType = "attachment"
		}
		parts = append(parts, ContentPart{Type: partType, Content: uri})
	}
	if len(parts) == 0 {
		partType := strings.TrimSpace(msg.Type)
		if partType == "" {
			partType = "unknown"
		}
		parts = append(parts, ContentPart{Type: partType, Content: ""})
	}
	return parts
}
