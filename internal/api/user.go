package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
)

// UserController handles user CRUD
type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// RegisterRoutes registers the routes for the user controller
func (c *UserController) RegisterRoutes(router gin.IRouter) {
	users := router.Group("/api/users")
	{
		users.POST("", c.CreateUser)
		users.GET("/:username", c.GetUser)
	}
}

func (c *UserController) CreateUser(ctx *gin.Context) {
	var req models.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

func (c *UserController) GetUser(ctx *gin.Context) {
	username := ctx.Param("username")

	user, err := c.userService.GetUserByUsername(ctx.Request.Context(), username)
	if err != nil {
		renderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}
