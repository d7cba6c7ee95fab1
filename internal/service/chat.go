package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/repository"
	"ai-character-chat/backend/internal/session"
	"ai-character-chat/backend/pkg/cache"
	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
)

// replyUnavailableMessage is what the user sees when the inference service
// cannot be reached. Their own message is already saved at that point.
const replyUnavailableMessage = "The AI server could not be reached. Please try again in a moment."

// conversationWindow bounds how far back a cached conversation projection
// reaches before it must be rebuilt from the database.
const conversationWindow = 24 * time.Hour

// ChatResult is the outcome of one exchange. Success is the single
// discriminant: false means the reply failed and Response carries the
// fallback text.
type ChatResult struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// HistoryEntry is the projection of a persisted turn handed to callers and
// stored in the conversation cache. No foreign-key objects leak into it.
type HistoryEntry struct {
	Message     string             `json:"message"`
	MessageType models.MessageType `json:"message_type"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ChatService orchestrates one exchange: resolve identities, persist the user
// turn, request a reply, persist the AI turn, invalidate the cache.
type ChatService struct {
	users      *repository.UserRepository
	characters *repository.CharacterRepository
	messages   *repository.MessageRepository
	cache      *cache.Cache
	markers    session.MarkerStore
	inference  ai.Inference
	log        *logger.Logger
}

func NewChatService(
	users *repository.UserRepository,
	characters *repository.CharacterRepository,
	messages *repository.MessageRepository,
	conversationCache *cache.Cache,
	markers session.MarkerStore,
	inference ai.Inference,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		users:      users,
		characters: characters,
		messages:   messages,
		cache:      conversationCache,
		markers:    markers,
		inference:  inference,
		log:        log,
	}
}

func conversationKey(userID, characterID uint) string {
	return fmt.Sprintf("conversation:%d:%d", userID, characterID)
}

// SendMessage runs a full exchange. Unknown identities return an error
// before anything is written. The user turn is durably persisted before the
// reply is requested; a failed reply produces a Success=false result with the
// fallback message and no AI turn.
func (s *ChatService) SendMessage(ctx context.Context, username string, characterID uint, message, sessionID string) (ChatResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return ChatResult{}, err
	}
	character, err := s.characters.FindByID(ctx, characterID)
	if err != nil {
		return ChatResult{}, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := s.log.WithUserID(user.ID).WithSessionID(sessionID)

	userTurn := &models.ChatMessage{
		UserID:      user.ID,
		CharacterID: character.ID,
		Message:     message,
		MessageType: models.MessageTypeUser,
		SessionID:   sessionID,
	}
	if err := s.messages.Create(ctx, userTurn); err != nil {
		return ChatResult{}, err
	}

	reply, err := s.inference.GenerateReply(ctx, message, ai.PersonaHandle(character.Name), buildCharacterInfo(character))
	if err != nil {
		// The user turn stays persisted; no AI turn is written.
		log.LogError(err, "reply generation failed", "character_id", character.ID)
		return ChatResult{
			Response:  replyUnavailableMessage,
			SessionID: sessionID,
			Success:   false,
			Error:     err.Error(),
		}, nil
	}

	aiTurn := &models.ChatMessage{
		UserID:      user.ID,
		CharacterID: character.ID,
		Message:     reply,
		MessageType: models.MessageTypeAI,
		SessionID:   sessionID,
	}
	if err := s.messages.Create(ctx, aiTurn); err != nil {
		return ChatResult{}, err
	}

	// Invalidate after the durable write so the next history read picks up
	// the new AI turn.
	s.cache.Delete(conversationKey(user.ID, character.ID))

	if err := s.markers.Put(ctx, sessionID, session.Marker{UserID: user.ID, CharacterID: character.ID}); err != nil {
		log.LogError(err, "failed to store session marker")
	}

	return ChatResult{
		Response:  reply,
		SessionID: sessionID,
		Success:   true,
	}, nil
}

// SendSimpleMessage is the session-less exchange: character lookup and reply
// generation only, with the same failure containment. Nothing is persisted
// or cached.
func (s *ChatService) SendSimpleMessage(ctx context.Context, characterID uint, message string) (ChatResult, error) {
	character, err := s.characters.FindByID(ctx, characterID)
	if err != nil {
		return ChatResult{}, err
	}

	reply, err := s.inference.GenerateReply(ctx, message, ai.PersonaHandle(character.Name), buildCharacterInfo(character))
	if err != nil {
		s.log.LogError(err, "reply generation failed", "character_id", character.ID)
		return ChatResult{
			Response: replyUnavailableMessage,
			Success:  false,
			Error:    err.Error(),
		}, nil
	}

	return ChatResult{Response: reply, Success: true}, nil
}

// GetConversationHistory returns up to limit turns of the last 24 hours of a
// (user, character) conversation, oldest first. Reads through the cache;
// a miss rebuilds the projection from the database.
func (s *ChatService) GetConversationHistory(ctx context.Context, userID, characterID uint, limit int) ([]HistoryEntry, error) {
	key := conversationKey(userID, characterID)

	if value, ok := s.cache.Get(key); ok {
		if entries, ok := value.([]HistoryEntry); ok {
			return truncate(entries, limit), nil
		}
	}

	since := time.Now().Add(-conversationWindow)
	messages, err := s.messages.FindRecentConversation(ctx, userID, characterID, since)
	if err != nil {
		return nil, err
	}

	entries := project(messages)
	entries = truncate(entries, limit)
	s.cache.Set(key, entries)

	return entries, nil
}

// GetSessionHistory returns every turn of a session, oldest first. It always
// reads the database directly: session replay must not be narrowed by the
// cache's 24-hour/limit projection.
func (s *ChatService) GetSessionHistory(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	messages, err := s.messages.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return project(messages), nil
}

// ResolveSession returns the (user, character) pair a live session belongs
// to. Markers expire with the session TTL, so an unknown session here may
// still have turns on record; only the quick ownership lookup is gone.
func (s *ChatService) ResolveSession(ctx context.Context, sessionID string) (session.Marker, error) {
	marker, err := s.markers.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrMarkerNotFound) {
			return session.Marker{}, apperrors.NewNotFound(fmt.Sprintf("session %q not found", sessionID))
		}
		return session.Marker{}, err
	}
	return marker, nil
}

// GetUserChatHistory returns a page of the user's messages across all
// characters, newest first.
func (s *ChatService) GetUserChatHistory(ctx context.Context, username string, page, size int) ([]HistoryEntry, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.FindByUserPaged(ctx, user.ID, page, size)
	if err != nil {
		return nil, err
	}
	return project(messages), nil
}

// ConversationCount returns how many turns a user has exchanged with a
// character.
func (s *ChatService) ConversationCount(ctx context.Context, userID, characterID uint) (int64, error) {
	return s.messages.CountConversation(ctx, userID, characterID)
}

// buildCharacterInfo assembles the persona context string: name, then
// description and personality when present, one line each.
func buildCharacterInfo(character *models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Character name: %s\n", character.Name)
	if character.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", character.Description)
	}
	if character.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", character.Personality)
	}
	return b.String()
}

func project(messages []models.ChatMessage) []HistoryEntry {
	entries := make([]HistoryEntry, len(messages))
	for i, m := range messages {
		entries[i] = HistoryEntry{
			Message:     m.Message,
			MessageType: m.MessageType,
			CreatedAt:   m.CreatedAt,
		}
	}
	return entries
}

func truncate(entries []HistoryEntry, limit int) []HistoryEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
