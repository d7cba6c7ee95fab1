package models

import (
	"time"
)

// Character is a persona the user chats with. Loaded once per orchestration
// call and treated as immutable for its duration.
type Character struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"uniqueIndex;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Personality     string    `gorm:"type:text" json:"personality"`
	SpeakingStyle   string    `gorm:"type:text" json:"speaking_style"`
	ProfileImageURL string    `json:"profile_image_url"`
	Age             int       `json:"age"`
	Occupation      string    `json:"occupation"`
	Background      string    `gorm:"type:text" json:"background"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateCharacterRequest is the request structure for creating a character
type CreateCharacterRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Personality   string `json:"personality"`
	SpeakingStyle string `json:"speaking_style"`
	Age           int    `json:"age"`
	Occupation    string `json:"occupation"`
	Background    string `json:"background"`
}
