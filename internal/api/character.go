package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
)

// CharacterController handles character CRUD
type CharacterController struct {
	characterService *service.CharacterService
}

func NewCharacterController(characterService *service.CharacterService) *CharacterController {
	return &CharacterController{characterService: characterService}
}

// RegisterRoutes registers the routes for the character controller
func (c *CharacterController) RegisterRoutes(router gin.IRouter) {
	characters := router.Group("/api/characters")
	{
		characters.POST("", c.CreateCharacter)
		characters.GET("", c.ListCharacters)
		characters.GET("/:id", c.GetCharacter)
		characters.DELETE("/:id", c.DeleteCharacter)
	}
}

func (c *CharacterController) CreateCharacter(ctx *gin.Context) {
	var req models.CreateCharacterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	character, err := c.characterService.CreateCharacter(ctx.Request.Context(), &req)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, character)
}

func (c *CharacterController) GetCharacter(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}

	character, err := c.characterService.GetCharacter(ctx.Request.Context(), id)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, character)
}

func (c *CharacterController) ListCharacters(ctx *gin.Context) {
	characters, err := c.characterService.ListCharacters(ctx.Request.Context())
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, characters)
}

func (c *CharacterController) DeleteCharacter(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.characterService.DeleteCharacter(ctx.Request.Context(), id); err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
