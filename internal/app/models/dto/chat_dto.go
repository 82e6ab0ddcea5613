package dto

import (
	"github.com/studentdesk/student-api/internal/app/models"
)

// PrivateMessageRequest is the payload of a chat.privateMessage SEND frame
type PrivateMessageRequest struct {
	Receiver string `json:"receiver" validate:"required"`
	Content  string `json:"content" validate:"required,max=4000"`
}

// PrivateMessageResponse is a chat message as delivered to clients.
// Timestamp is epoch milliseconds.
type PrivateMessageResponse struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Delivered bool   `json:"delivered"`
	Read      bool   `json:"read"`
}

// NewPrivateMessageResponse maps a message with resolved usernames.
func NewPrivateMessageResponse(m *models.Message) PrivateMessageResponse {
	return PrivateMessageResponse{
		ID:        m.ID,
		Sender:    m.SenderUsername,
		Receiver:  m.ReceiverUsername,
		Content:   m.Content,
		Timestamp: m.CreatedAt.UnixMilli(),
		Delivered: m.Delivered,
		Read:      m.Read,
	}
}

// PresenceStatus is ONLINE or OFFLINE
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "ONLINE"
	PresenceOffline PresenceStatus = "OFFLINE"
)

// PresenceEvent is broadcast to /topic/public.presence
type PresenceEvent struct {
	Username string         `json:"username"`
	Status   PresenceStatus `json:"status"`
}
