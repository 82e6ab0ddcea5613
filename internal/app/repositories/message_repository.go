package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
	"github.com/studentdesk/student-api/internal/pkg/logger"
)

// MessageRepository handles private message persistence
type MessageRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(pool db.Querier) *MessageRepository {
	return &MessageRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// between matches messages exchanged in either direction.
func between(a, b int64) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.And{squirrel.Eq{"m.sender_id": a}, squirrel.Eq{"m.receiver_id": b}},
		squirrel.And{squirrel.Eq{"m.sender_id": b}, squirrel.Eq{"m.receiver_id": a}},
	}
}

// Create persists m and fills its id and creation time.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	sql, args, err := r.sb.Insert("messages").
		Columns("content", "sender_id", "receiver_id", "delivered", "read").
		Values(m.Content, m.SenderID, m.ReceiverID, m.Delivered, m.Read).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create message SQL")
		return fmt.Errorf("failed to build create message query: %w", err)
	}

	if err := db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("senderID", m.SenderID).Int64("receiverID", m.ReceiverID).Msg("Error executing create message query")
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// MarkDelivered sets the delivered flag of one message.
func (r *MessageRepository) MarkDelivered(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("messages").Set("delivered", true).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark delivered query: %w", err)
	}

	tag, err := db.Conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("messageID", id).Msg("Error marking message delivered")
		return fmt.Errorf("error marking message delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("message %d not found", id))
	}
	return nil
}

// FindConversation returns one page of the conversation between two users in
// chronological order, and the total number of messages in it.
func (r *MessageRepository) FindConversation(ctx context.Context, userA, userB int64, page helpers.PageRequest) ([]*models.Message, int64, error) {
	conn := db.Conn(ctx, r.db)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("messages m").Where(between(userA, userB)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count conversation query: %w", err)
	}
	var total int64
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting conversation")
		return nil, 0, fmt.Errorf("error counting conversation: %w", err)
	}

	sql, args, err := r.sb.Select(
		"m.id", "m.content", "m.created_at", "m.delivered", "m.read",
		"m.sender_id", "m.receiver_id", "su.username", "ru.username",
	).
		From("messages m").
		Join("users su ON su.id = m.sender_id").
		Join("users ru ON ru.id = m.receiver_id").
		Where(between(userA, userB)).
		OrderBy("m.created_at ASC", "m.id ASC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build conversation query: %w", err)
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing conversation query")
		return nil, 0, fmt.Errorf("error querying conversation: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.Content, &m.CreatedAt, &m.Delivered, &m.Read,
			&m.SenderID, &m.ReceiverID, &m.SenderUsername, &m.ReceiverUsername); err != nil {
			return nil, 0, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating conversation: %w", err)
	}
	return messages, total, nil
}

// MarkConversationRead flips every unread message sent by senderID to
// receiverID and returns how many changed.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	sql, args, err := r.sb.Update("messages").
		Set("read", true).
		Where(squirrel.Eq{"sender_id": senderID, "receiver_id": receiverID, "read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark read query: %w", err)
	}

	tag, err := db.Conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("receiverID", receiverID).Int64("senderID", senderID).Msg("Error marking conversation read")
		return 0, fmt.Errorf("error marking conversation read: %w", err)
	}
	return tag.RowsAffected(), nil
}
