package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orga/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// GetByIDInTenant solo encuentra usuarios del tenant indicado.
	GetByIDInTenant(ctx context.Context, id, tenantID string) (domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	UpdateTenant(ctx context.Context, id, tenantID string) error
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, full_name, password_hash, role, tenant_id, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	return createUser(ctx, r.pool, user)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByIDInTenant(ctx context.Context, id, tenantID string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND tenant_id = $2`
	return scanUser(r.pool.QueryRow(ctx, query, id, tenantID))
}

func (r *PgUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *PgUserRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *PgUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *PgUserRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, err
}

func (r *PgUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *PgUserRepository) UpdateTenant(ctx context.Context, id, tenantID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET tenant_id = $2 WHERE id = $1`, id, tenantID)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func createUser(ctx context.Context, q querier, user domain.User) error {
	const query = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		string(user.Role),
		user.TenantID,
		user.CreatedAt,
	)
	return translateErr(err)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()
	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&role,
		&u.TenantID,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, translateErr(err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
