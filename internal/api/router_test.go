package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ai-character-chat/backend/internal/jobs"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/repository"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/internal/session"
	"ai-character-chat/backend/pkg/cache"
	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
)

type stubInference struct {
	reply     string
	replyErr  error
	embedding []float32
	embedErr  error
}

func (s *stubInference) GenerateReply(ctx context.Context, message, characterHandle, characterInfo string) (string, error) {
	if s.replyErr != nil {
		return "", s.replyErr
	}
	return s.reply, nil
}

func (s *stubInference) Embed(ctx context.Context, content string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return s.embedding, nil
}

func setupRouter(t *testing.T, inference *stubInference) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Character{}, &models.ChatMessage{}, &models.Story{}))

	users := repository.NewUserRepository(db)
	characters := repository.NewCharacterRepository(db)
	messages := repository.NewMessageRepository(db)
	stories := repository.NewStoryRepository(db)

	log := logger.New(logger.Config{Level: "error"})

	conversationCache := cache.New(24*time.Hour, 0, 0)
	t.Cleanup(conversationCache.Close)

	embedder := jobs.NewEmbedder(inference, stories, log, 1, 10, 5*time.Second)
	t.Cleanup(embedder.Close)

	router := NewRouter(Controllers{
		Chat:      service.NewChatService(users, characters, messages, conversationCache, session.NewMemoryStore(24*time.Hour), inference, log),
		Story:     service.NewStoryService(stories, characters, embedder, inference, log),
		Character: service.NewCharacterService(characters),
		User:      service.NewUserService(users),
	}, nil)

	return router, db
}

func seedCharacter(t *testing.T, db *gorm.DB) *models.Character {
	t.Helper()
	character := &models.Character{Name: "Nova", Description: "A starship navigator"}
	require.NoError(t, db.Create(character).Error)
	return character
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendMessageEndpoint(t *testing.T) {
	inference := &stubInference{reply: "Hello there."}
	router, db := setupRouter(t, inference)
	seedUser(t, db)
	character := seedCharacter(t, db)

	w := doJSON(router, http.MethodPost, "/api/chat/send", gin.H{
		"username":     "alice",
		"character_id": character.ID,
		"message":      "hi",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp service.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Hello there.", resp.Response)
	assert.NotEmpty(t, resp.SessionID)
}

func TestSendMessageEndpointUnknownUser(t *testing.T) {
	router, db := setupRouter(t, &stubInference{reply: "x"})
	character := seedCharacter(t, db)

	w := doJSON(router, http.MethodPost, "/api/chat/send", gin.H{
		"username":     "nobody",
		"character_id": character.ID,
		"message":      "hi",
	})

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeNotFound, resp["code"])
}

func TestSendMessageEndpointMissingFields(t *testing.T) {
	router, _ := setupRouter(t, &stubInference{})

	w := doJSON(router, http.MethodPost, "/api/chat/send", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageEndpointInferenceDown(t *testing.T) {
	inference := &stubInference{replyErr: apperrors.NewInferenceUnavailable("down")}
	router, db := setupRouter(t, inference)
	seedUser(t, db)
	character := seedCharacter(t, db)

	w := doJSON(router, http.MethodPost, "/api/chat/send", gin.H{
		"username":     "alice",
		"character_id": character.ID,
		"message":      "hi",
	})

	// A failed reply is still a 200: the result envelope carries the failure.
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Response)
	assert.NotEmpty(t, resp.Error)
}

func TestSessionOwnerEndpoint(t *testing.T) {
	inference := &stubInference{reply: "Hello."}
	router, db := setupRouter(t, inference)
	user := seedUser(t, db)
	character := seedCharacter(t, db)

	w := doJSON(router, http.MethodPost, "/api/chat/send", gin.H{
		"username":     "alice",
		"character_id": character.ID,
		"message":      "hi",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var sent service.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))

	w = doJSON(router, http.MethodGet, "/api/chat/session/"+sent.SessionID+"/owner", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(user.ID), resp["user_id"])
	assert.Equal(t, float64(character.ID), resp["character_id"])

	w = doJSON(router, http.MethodGet, "/api/chat/session/unknown/owner", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationHistoryEndpointRequiresParams(t *testing.T) {
	router, _ := setupRouter(t, &stubInference{})

	w := doJSON(router, http.MethodGet, "/api/chat/history?characterId=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/chat/history?userId=abc&characterId=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStoryEndpoint(t *testing.T) {
	inference := &stubInference{embedding: []float32{0.1, 0.2}}
	router, db := setupRouter(t, inference)
	character := seedCharacter(t, db)

	w := doJSON(router, http.MethodPost, "/api/stories", gin.H{
		"character_id": character.ID,
		"title":        "Origins",
		"content":      "once upon a time",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var story models.Story
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &story))
	assert.NotZero(t, story.ID)
	assert.Equal(t, "Origins", story.Title)
}

func TestCreateStoryEndpointUnknownCharacter(t *testing.T) {
	router, _ := setupRouter(t, &stubInference{})

	w := doJSON(router, http.MethodPost, "/api/stories", gin.H{
		"character_id": 99,
		"title":        "Orphan",
		"content":      "no owner",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStorySearchEndpointFailsClosed(t *testing.T) {
	inference := &stubInference{embedErr: apperrors.NewInferenceUnavailable("down")}
	router, db := setupRouter(t, inference)
	character := seedCharacter(t, db)

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/api/stories/search?q=magic&characterId=%d", character.ID), nil)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeInferenceUnavailable, resp["code"])
}

func TestCreateUserEndpointDuplicate(t *testing.T) {
	router, _ := setupRouter(t, &stubInference{})

	body := gin.H{"username": "alice", "email": "alice@example.com", "password": "password123"}

	w := doJSON(router, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRenderErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	renderError(ctx, fmt.Errorf("dial tcp: password=hunter2 dbname=chat"))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeInternal, resp["code"])
	assert.Equal(t, "internal server error", resp["error"])
	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestRenderErrorKeepsAppErrorMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	renderError(ctx, apperrors.NewNotFound("user \"bob\" not found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "bob")
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupRouter(t, &stubInference{})

	w := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
