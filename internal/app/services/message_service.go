package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
	"github.com/studentdesk/student-api/internal/pkg/validation"
)

// MessageRepository is the message persistence the chat service needs
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	MarkDelivered(ctx context.Context, id int64) error
	FindConversation(ctx context.Context, userA, userB int64, page helpers.PageRequest) ([]*models.Message, int64, error)
	MarkConversationRead(ctx context.Context, receiverID, senderID int64) (int64, error)
}

// MessageService handles private chat messages
type MessageService interface {
	// SendPrivateMessage persists a message from sender. It is not yet delivered.
	SendPrivateMessage(ctx context.Context, sender string, req dto.PrivateMessageRequest) (*dto.PrivateMessageResponse, error)
	// MarkAsDelivered flags a message once it has been routed to the receiver.
	MarkAsDelivered(ctx context.Context, messageID int64) error
	GetConversation(ctx context.Context, userA, userB string, page helpers.PageRequest) (*dto.PageResponse[dto.PrivateMessageResponse], error)
	// MarkAllAsRead flips messages sent by sender to receiver. Unknown users are a no-op.
	MarkAllAsRead(ctx context.Context, receiver, sender string) error
}

type messageService struct {
	messages  MessageRepository
	users     UserRepository
	tx        db.Transactor
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messages MessageRepository,
	users UserRepository,
	tx db.Transactor,
	validator *validation.Validator,
	logger zerolog.Logger,
) MessageService {
	return &messageService{
		messages:  messages,
		users:     users,
		tx:        tx,
		validator: validator,
		logger:    logger,
	}
}

func (s *messageService) lookup(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "User not found: "+username)
		}
		return nil, err
	}
	return u, nil
}

func (s *messageService) SendPrivateMessage(ctx context.Context, sender string, req dto.PrivateMessageRequest) (*dto.PrivateMessageResponse, error) {
	req.Receiver = strings.TrimSpace(req.Receiver)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	msg := &models.Message{Content: req.Content}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		from, err := s.lookup(ctx, sender)
		if err != nil {
			return err
		}
		to, err := s.lookup(ctx, req.Receiver)
		if err != nil {
			return err
		}

		msg.SenderID, msg.SenderUsername = from.ID, from.Username
		msg.ReceiverID, msg.ReceiverUsername = to.ID, to.Username
		return s.messages.Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("messageID", msg.ID).Str("sender", msg.SenderUsername).Str("receiver", msg.ReceiverUsername).Msg("Private message stored")
	resp := dto.NewPrivateMessageResponse(msg)
	return &resp, nil
}

func (s *messageService) MarkAsDelivered(ctx context.Context, messageID int64) error {
	if err := s.messages.MarkDelivered(ctx, messageID); err != nil {
		return err
	}
	s.logger.Debug().Int64("messageID", messageID).Msg("Private message delivered")
	return nil
}

func (s *messageService) GetConversation(ctx context.Context, userA, userB string, page helpers.PageRequest) (*dto.PageResponse[dto.PrivateMessageResponse], error) {
	a, err := s.lookup(ctx, userA)
	if err != nil {
		return nil, err
	}
	b, err := s.lookup(ctx, userB)
	if err != nil {
		return nil, err
	}

	messages, total, err := s.messages.FindConversation(ctx, a.ID, b.ID, page)
	if err != nil {
		return nil, err
	}

	data := make([]dto.PrivateMessageResponse, 0, len(messages))
	for _, m := range messages {
		data = append(data, dto.NewPrivateMessageResponse(m))
	}
	return &dto.PageResponse[dto.PrivateMessageResponse]{
		Data: data,
		Meta: helpers.NewPageMeta(total, page),
	}, nil
}

func (s *messageService) MarkAllAsRead(ctx context.Context, receiver, sender string) error {
	to, err := s.users.GetByUsername(ctx, receiver)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	from, err := s.users.GetByUsername(ctx, sender)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	n, err := s.messages.MarkConversationRead(ctx, to.ID, from.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug().Str("receiver", receiver).Str("sender", sender).Int64("count", n).Msg("Messages marked read")
	}
	return nil
}
