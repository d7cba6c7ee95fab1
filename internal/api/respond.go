package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
)

// renderError maps service errors onto HTTP responses. AppErrors carry their
// own status; anything else is logged and returned as an opaque 500 so
// internal detail never reaches the client.
func renderError(ctx *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		ctx.JSON(appErr.StatusCode, gin.H{"code": appErr.Code, "error": appErr.Message})
		return
	}
	logger.GetGlobal().LogError(err, "unhandled error", "path", ctx.FullPath())
	ctx.JSON(http.StatusInternalServerError, gin.H{"code": apperrors.CodeInternal, "error": "internal server error"})
}
