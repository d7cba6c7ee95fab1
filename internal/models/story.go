package models

import (
	"time"
)

// Story is a knowledge document attached to a character. Its embedding is
// produced asynchronously; a story without one is excluded from similarity
// search and eligible for (re)embedding.
type Story struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CharacterID     uint      `gorm:"index;not null" json:"character_id"`
	Title           string    `gorm:"not null" json:"title"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	EmbeddingVector string    `gorm:"type:text" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasEmbedding reports whether the story carries an embedding vector.
func (s *Story) HasEmbedding() bool {
	return s.EmbeddingVector != ""
}

// CreateStoryRequest is the request structure for creating a story
type CreateStoryRequest struct {
	CharacterID uint   `json:"character_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
}
