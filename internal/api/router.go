package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/middleware"
)

// Controllers groups everything the router mounts.
type Controllers struct {
	Chat      *service.ChatService
	Story     *service.StoryService
	Character *service.CharacterService
	User      *service.UserService
}

// NewRouter builds the gin engine: rate-limited /api routes, /health and
// /metrics.
func NewRouter(c Controllers, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	NewChatController(c.Chat).RegisterRoutes(router)
	NewStoryController(c.Story).RegisterRoutes(router)
	NewCharacterController(c.Character).RegisterRoutes(router)
	NewUserController(c.User).RegisterRoutes(router)

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
