package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-character-chat/backend/internal/service"
)

// ChatController handles the conversation endpoints
type ChatController struct {
	chatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// RegisterRoutes registers the routes for the chat controller
func (c *ChatController) RegisterRoutes(router gin.IRouter) {
	chat := router.Group("/api/chat")
	{
		chat.POST("/send", c.SendMessage)
		chat.POST("/simple", c.SendSimpleMessage)
		chat.GET("/history", c.GetConversationHistory)
		chat.GET("/session/:sessionId", c.GetSessionHistory)
		chat.GET("/session/:sessionId/owner", c.GetSessionOwner)
		chat.GET("/user/:username", c.GetUserChatHistory)
		chat.GET("/count", c.GetConversationCount)
	}
}

// SendMessage runs a full exchange with session tracking
func (c *ChatController) SendMessage(ctx *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		CharacterID uint   `json:"character_id" binding:"required"`
		Message     string `json:"message" binding:"required"`
		SessionID   string `json:"session_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	result, err := c.chatService.SendMessage(ctx.Request.Context(), req.Username, req.CharacterID, req.Message, req.SessionID)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// SendSimpleMessage runs a session-less exchange
func (c *ChatController) SendSimpleMessage(ctx *gin.Context) {
	var req struct {
		CharacterID uint   `json:"character_id" binding:"required"`
		Message     string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	result, err := c.chatService.SendSimpleMessage(ctx.Request.Context(), req.CharacterID, req.Message)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetConversationHistory returns the recent (user, character) conversation
func (c *ChatController) GetConversationHistory(ctx *gin.Context) {
	userID, ok := uintQuery(ctx, "userId")
	if !ok {
		return
	}
	characterID, ok := uintQuery(ctx, "characterId")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}

	entries, err := c.chatService.GetConversationHistory(ctx.Request.Context(), userID, characterID, limit)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"messages": entries, "count": len(entries)})
}

// GetSessionHistory returns the full replay of one session
func (c *ChatController) GetSessionHistory(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "session ID is required"})
		return
	}

	entries, err := c.chatService.GetSessionHistory(ctx.Request.Context(), sessionID)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": entries, "count": len(entries)})
}

// GetSessionOwner resolves which (user, character) pair a live session
// belongs to
func (c *ChatController) GetSessionOwner(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "session ID is required"})
		return
	}

	marker, err := c.chatService.ResolveSession(ctx.Request.Context(), sessionID)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"session_id":   sessionID,
		"user_id":      marker.UserID,
		"character_id": marker.CharacterID,
	})
}

// GetUserChatHistory returns a page of a user's messages across characters
func (c *ChatController) GetUserChatHistory(ctx *gin.Context) {
	username := ctx.Param("username")

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(ctx.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}

	entries, err := c.chatService.GetUserChatHistory(ctx.Request.Context(), username, page, size)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"messages": entries, "count": len(entries)})
}

// GetConversationCount returns the turn count for a (user, character) pair
func (c *ChatController) GetConversationCount(ctx *gin.Context) {
	userID, ok := uintQuery(ctx, "userId")
	if !ok {
		return
	}
	characterID, ok := uintQuery(ctx, "characterId")
	if !ok {
		return
	}

	count, err := c.chatService.ConversationCount(ctx.Request.Context(), userID, characterID)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": count})
}

// uintQuery parses a required uint query parameter, writing the error
// response itself on failure.
func uintQuery(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": name + " is required"})
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(value), true
}
