package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orga/internal/domain"
)

// TenantRepository define el contrato de persistencia para tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant domain.Tenant) error
	// Ensure inserta el tenant si su dominio no existe y devuelve el registro vigente.
	Ensure(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	GetByID(ctx context.Context, id string) (domain.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	Update(ctx context.Context, tenant domain.Tenant) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (total int64, active int64, err error)
}

// PgTenantRepository implementa TenantRepository usando pgxpool.
type PgTenantRepository struct {
	pool *pgxpool.Pool
}

func NewPgTenantRepository(pool *pgxpool.Pool) *PgTenantRepository {
	return &PgTenantRepository{pool: pool}
}

const tenantColumns = `id, name, domain, created_at, is_active, subscription_plan, max_users, max_messages_per_month`

func (r *PgTenantRepository) Create(ctx context.Context, tenant domain.Tenant) error {
	return createTenant(ctx, r.pool, tenant)
}

func (r *PgTenantRepository) Ensure(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	return ensureTenant(ctx, r.pool, tenant)
}

func (r *PgTenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.pool.QueryRow(ctx, query, id))
}

func (r *PgTenantRepository) GetByDomain(ctx context.Context, domainName string) (domain.Tenant, error) {
	return getTenantByDomain(ctx, r.pool, domainName)
}

func (r *PgTenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *PgTenantRepository) Update(ctx context.Context, tenant domain.Tenant) error {
	const query = `
		UPDATE tenants
		SET name = $2, is_active = $3, subscription_plan = $4, max_users = $5, max_messages_per_month = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.IsActive,
		string(tenant.SubscriptionPlan),
		tenant.MaxUsers,
		tenant.MaxMessagesPerMonth,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgTenantRepository) Delete(ctx context.Context, id string) error {
	// users, conversations y messages caen por ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgTenantRepository) Count(ctx context.Context) (int64, int64, error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM tenants`
	var total, active int64
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func createTenant(ctx context.Context, q querier, tenant domain.Tenant) error {
	const query = `INSERT INTO tenants (` + tenantColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		tenant.CreatedAt,
		tenant.IsActive,
		string(tenant.SubscriptionPlan),
		tenant.MaxUsers,
		tenant.MaxMessagesPerMonth,
	)
	return translateErr(err)
}

func ensureTenant(ctx context.Context, q querier, tenant domain.Tenant) (domain.Tenant, error) {
	const query = `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (domain) DO NOTHING
	`
	_, err := q.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		tenant.CreatedAt,
		tenant.IsActive,
		string(tenant.SubscriptionPlan),
		tenant.MaxUsers,
		tenant.MaxMessagesPerMonth,
	)
	if err = translateErr(err); err != nil && !errors.Is(err, ErrConflict) {
		return domain.Tenant{}, err
	}
	// Otra request pudo ganar la carrera: releemos por dominio.
	return getTenantByDomain(ctx, q, tenant.Domain)
}

func getTenantByDomain(ctx context.Context, q querier, domainName string) (domain.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE domain = $1`
	return scanTenant(q.QueryRow(ctx, query, domainName))
}

func scanTenant(row pgx.Row) (domain.Tenant, error) {
	var t domain.Tenant
	var plan string
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Domain,
		&t.CreatedAt,
		&t.IsActive,
		&plan,
		&t.MaxUsers,
		&t.MaxMessagesPerMonth,
	)
	if err != nil {
		return domain.Tenant{}, translateErr(err)
	}
	t.SubscriptionPlan = domain.Plan(plan)
	return t, nil
}
