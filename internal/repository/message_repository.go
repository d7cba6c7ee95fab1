package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ai-character-chat/backend/internal/models"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a single chat turn.
func (r *MessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindBySession returns every message in a session, oldest first. Used for
// exact session replay, so no window or limit is applied.
func (r *MessageRepository) FindBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindRecentConversation returns the (user, character) messages created at or
// after since, oldest first.
func (r *MessageRepository) FindRecentConversation(ctx context.Context, userID, characterID uint, since time.Time) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND character_id = ? AND created_at >= ?", userID, characterID, since).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindByUserPaged returns a page of the user's messages across all
// characters, newest first.
func (r *MessageRepository) FindByUserPaged(ctx context.Context, userID uint, page, size int) ([]models.ChatMessage, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}

	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CountConversation returns the total number of messages exchanged between a
// user and a character.
func (r *MessageRepository) CountConversation(ctx context.Context, userID, characterID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("user_id = ? AND character_id = ?", userID, characterID).
		Count(&count).Error
	return count, err
}
