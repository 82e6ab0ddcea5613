package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/services"
	"github.com/studentdesk/student-api/internal/middleware"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
)

// ChatController serves private chat history
type ChatController struct {
	messageService services.MessageService
	logger         zerolog.Logger
}

// NewChatController creates a new ChatController
func NewChatController(messageService services.MessageService, logger zerolog.Logger) *ChatController {
	return &ChatController{messageService: messageService, logger: logger}
}

// GetConversation handles GET /api/chat/messages/:otherUsername. Reading the
// history marks every message from the other user to the caller as read.
func (c *ChatController) GetConversation(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	other := ctx.Param("otherUsername")
	page := helpers.ParsePageRequest(ctx, helpers.ChatPageSize)

	result, err := c.messageService.GetConversation(ctx.Request.Context(), me, other, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.messageService.MarkAllAsRead(ctx.Request.Context(), me, other); err != nil {
		c.logger.Warn().Err(err).Str("receiver", me).Str("sender", other).Msg("Failed to mark conversation read")
	}

	ctx.JSON(http.StatusOK, result)
}
