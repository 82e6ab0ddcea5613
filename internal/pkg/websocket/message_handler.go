package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/middleware"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/requestctx"
)

// MessageSender persists private messages and records their delivery.
type MessageSender interface {
	SendPrivateMessage(ctx context.Context, sender string, req dto.PrivateMessageRequest) (*dto.PrivateMessageResponse, error)
	MarkAsDelivered(ctx context.Context, messageID int64) error
}

// MessageHandler handles SEND frames addressed to the application.
type MessageHandler struct {
	messages MessageSender
	hub      *Hub
	logger   zerolog.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages MessageSender, hub *Hub, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		hub:      hub,
		logger:   logger,
	}
}

// HandlePrivateMessage stores the message and routes it to both parties.
// Failures go to the sender's error queue and the session stays open.
func (h *MessageHandler) HandlePrivateMessage(ctx context.Context, c *Client, body []byte) {
	var req dto.PrivateMessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Debug().Err(err).Str("username", c.username).Msg("Malformed private message payload")
		c.replyTo(ErrorQueue, errorPayload(apperrors.NewBadRequestError("Malformed message payload")))
		return
	}

	ctx = requestctx.WithUsername(ctx, c.username)
	ctx = requestctx.WithEndpoint(ctx, "SEND "+PrivateMessageDest)

	resp, err := h.messages.SendPrivateMessage(ctx, c.username, req)
	if err != nil {
		h.logger.Warn().Err(err).
			Str("sender", c.username).
			Str("receiver", req.Receiver).
			Msg("Private message rejected")
		c.replyTo(ErrorQueue, errorPayload(err))
		return
	}

	// Routing to the receiver's queue counts as delivery.
	if err := h.messages.MarkAsDelivered(ctx, resp.ID); err != nil {
		h.logger.Warn().Err(err).Int64("messageID", resp.ID).Msg("Failed to mark message delivered")
	} else {
		resp.Delivered = true
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error().Err(err).Int64("messageID", resp.ID).Msg("Failed to encode private message")
		return
	}
	h.hub.SendToUsers(PrivateQueue, payload, resp.Receiver, resp.Sender)
}

func errorPayload(err error) []byte {
	status := middleware.StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "An unexpected error occurred"
	}
	body, _ := json.Marshal(dto.NewErrorResponse(status, message, apperrors.Details(err)))
	return body
}
