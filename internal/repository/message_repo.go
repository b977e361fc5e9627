package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"orga/internal/domain"
)

// MessageRepository persiste mensajes y expone los conteos de uso.
// Los rangos de fecha son semiabiertos: [from, to).
type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	CountByTenantBetween(ctx context.Context, tenantID string, from, to time.Time) (int64, error)
	CountByUserBetween(ctx context.Context, userID string, from, to time.Time) (int64, error)
	CountByUserInTenantBetween(ctx context.Context, tenantID string, from, to time.Time) (map[string]int64, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, conversation_id, content, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ConversationID,
		message.Content,
		string(message.Role),
		message.CreatedAt,
	)
	return translateErr(err)
}

func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, content, role, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		err = rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Content,
			&role,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		msg.Role = domain.MessageRole(role)
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *PgMessageRepository) CountByTenantBetween(ctx context.Context, tenantID string, from, to time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		JOIN users u ON u.id = c.user_id
		WHERE u.tenant_id = $1 AND m.created_at >= $2 AND m.created_at < $3
	`
	var n int64
	err := r.pool.QueryRow(ctx, query, tenantID, from, to).Scan(&n)
	return n, err
}

func (r *PgMessageRepository) CountByUserBetween(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.user_id = $1 AND m.created_at >= $2 AND m.created_at < $3
	`
	var n int64
	err := r.pool.QueryRow(ctx, query, userID, from, to).Scan(&n)
	return n, err
}

func (r *PgMessageRepository) CountByUserInTenantBetween(ctx context.Context, tenantID string, from, to time.Time) (map[string]int64, error) {
	const query = `
		SELECT c.user_id, COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		JOIN users u ON u.id = c.user_id
		WHERE u.tenant_id = $1 AND m.created_at >= $2 AND m.created_at < $3
		GROUP BY c.user_id
	`
	rows, err := r.pool.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var userID string
		var n int64
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		counts[userID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
