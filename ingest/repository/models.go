package repository

import "time"

// Persistence models for the per-tenant database. UUID keys are stored as
// 16-byte binary; chat ids stay canonical UUID strings because the provider
// mixes UUID and opaque numeric chat identifiers.

type channelModel struct {
	ID   []byte `gorm:"primaryKey"`
	Type string `gorm:"not null"`
}

func (channelModel) TableName() string {
	return "channels"
}

type chatModel struct {
	ID        string `gorm:"primaryKey"`
	ChannelID []byte `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	ClientID  []byte
}

func (chatModel) TableName() string {
	return "chats"
}

type clientModel struct {
	ID                []byte `gorm:"primaryKey"`
	FullName          string `gorm:"not null"`
	Email             string `gorm:"uniqueIndex;not null"`
	Phone             string
	ChatKey           string `gorm:"index:idx_clients_chat_key"`
	ResponsibleUserID []byte
	CreatedAt         time.Time `gorm:"not null"`
}

func (clientModel) TableName() string {
	return "clients"
}

type messageModel struct {
	ID              []byte `gorm:"primaryKey"`
	ChatID          string `gorm:"index:idx_messages_chat;not null"`
	Content         string `gorm:"type:text;not null"` // canonical JSON parts
	Direction       string `gorm:"not null"`
	DirectionStatus string
	IsEcho          *bool
	AuthorUserID    []byte
	CreatedAt       time.Time `gorm:"not null"`
}

func (messageModel) TableName() string {
	return "messages"
}

type userModel struct {
	ID      []byte `gorm:"primaryKey"`
	Name    string `gorm:"not null"`
	Email   string `gorm:"uniqueIndex;not null"`
	Role    string `gorm:"index;not null"`
	HookURL string
	Active  bool `gorm:"default:true"`
}

func (userModel) TableName() string {
	return "users"
}

// responsibilityModel keys on the client: a client has exactly one current
// assignee, so reassignment is an upsert on client_id.
type responsibilityModel struct {
	ClientID []byte `gorm:"primaryKey"`
	UserID   []byte `gorm:"index;not null"`
}

func (responsibilityModel) TableName() string {
	return "responsibilities"
}

type transferModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	ChatID     string `gorm:"index"`
	FromUserID []byte
	ToUserID   []byte    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (transferModel) TableName() string {
	return "transfers"
}
