package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
)

// StoryController handles story documents and the embedding endpoints
type StoryController struct {
	storyService *service.StoryService
}

func NewStoryController(storyService *service.StoryService) *StoryController {
	return &StoryController{storyService: storyService}
}

// RegisterRoutes registers the routes for the story controller
func (c *StoryController) RegisterRoutes(router gin.IRouter) {
	stories := router.Group("/api/stories")
	{
		stories.POST("", c.CreateStory)
		stories.GET("/search", c.SearchSimilarStories)
		stories.GET("/pending", c.GetPendingStories)
		stories.GET("/:id", c.GetStory)
		stories.POST("/:id/embed", c.EmbedStory)
		stories.DELETE("/:id", c.DeleteStory)
	}
	router.GET("/api/characters/:id/stories", c.GetCharacterStories)
}

// CreateStory persists a story; its embedding is generated asynchronously,
// so the response never waits for it.
func (c *StoryController) CreateStory(ctx *gin.Context) {
	var req models.CreateStoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	story, err := c.storyService.CreateStory(ctx.Request.Context(), req.CharacterID, req.Title, req.Content)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, story)
}

// EmbedStory re-requests an embedding for a story
func (c *StoryController) EmbedStory(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.storyService.EmbedStory(ctx.Request.Context(), id); err != nil {
		if service.IsQueueFull(err) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding queue is full, try again later"})
			return
		}
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
}

// SearchSimilarStories ranks a character's embedded stories against a query
func (c *StoryController) SearchSimilarStories(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	characterID, ok := uintQuery(ctx, "characterId")
	if !ok {
		return
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		limit = 5
	}

	stories, err := c.storyService.SearchSimilarStories(ctx.Request.Context(), query, characterID, limit)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"stories": stories, "count": len(stories)})
}

// GetPendingStories lists stories still waiting for an embedding
func (c *StoryController) GetPendingStories(ctx *gin.Context) {
	stories, err := c.storyService.StoriesWithoutEmbedding(ctx.Request.Context())
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"stories": stories, "count": len(stories)})
}

// GetStory returns a single story
func (c *StoryController) GetStory(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}

	story, err := c.storyService.GetStory(ctx.Request.Context(), id)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"story":         story,
		"has_embedding": story.HasEmbedding(),
	})
}

// GetCharacterStories returns a character's stories
func (c *StoryController) GetCharacterStories(ctx *gin.Context) {
	characterID, ok := uintParam(ctx, "id")
	if !ok {
		return
	}

	stories, err := c.storyService.StoriesByCharacter(ctx.Request.Context(), characterID)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"stories": stories, "count": len(stories)})
}

// DeleteStory removes a story
func (c *StoryController) DeleteStory(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.storyService.DeleteStory(ctx.Request.Context(), id); err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// uintParam parses a uint path parameter, writing the error response itself
// on failure.
func uintParam(ctx *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(value), true
}
