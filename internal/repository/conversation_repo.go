package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"orga/internal/domain"
)

// ConversationRepository persiste conversaciones; toda lectura va acotada al usuario duenio.
type ConversationRepository interface {
	Create(ctx context.Context, conversation domain.Conversation) error
	GetForUser(ctx context.Context, id, userID string) (domain.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
	UpdateTitle(ctx context.Context, id, title string) error
	Touch(ctx context.Context, id string, updatedAt time.Time) error
	DeleteForUser(ctx context.Context, id, userID string) error
}

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, c domain.Conversation) error {
	const query = `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, c.ID, c.UserID, c.Title, c.CreatedAt, c.UpdatedAt)
	return translateErr(err)
}

func (r *PgConversationRepository) GetForUser(ctx context.Context, id, userID string) (domain.Conversation, error) {
	const query = `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`
	var c domain.Conversation
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Conversation{}, translateErr(err)
	}
	return c, nil
}

func (r *PgConversationRepository) ListByUser(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	const query = `
		SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ConversationSummary{}
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgConversationRepository) UpdateTitle(ctx context.Context, id, title string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE conversations SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgConversationRepository) Touch(ctx context.Context, id string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgConversationRepository) DeleteForUser(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
