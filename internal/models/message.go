package models

import (
	"time"
)

// MessageType discriminates who authored a chat message
type MessageType string

const (
	MessageTypeUser MessageType = "USER"
	MessageTypeAI   MessageType = "AI"
)

// ChatMessage is a single persisted turn of a conversation. The USER turn of
// an exchange is always written before its AI turn; a failed reply leaves the
// USER turn in place with no AI counterpart.
type ChatMessage struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"index;not null" json:"user_id"`
	CharacterID uint        `gorm:"index;not null" json:"character_id"`
	Message     string      `gorm:"type:text;not null" json:"message"`
	MessageType MessageType `gorm:"type:varchar(8);not null" json:"message_type"`
	SessionID   string      `gorm:"index" json:"session_id"`
	CreatedAt   time.Time   `json:"created_at"`
}
