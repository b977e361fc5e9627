package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orga/internal/domain"
)

// Provisioner crea un tenant (si falta) y su administrador como una sola unidad.
type Provisioner interface {
	ProvisionAdmin(ctx context.Context, tenant domain.Tenant, admin domain.User) (domain.Tenant, domain.User, error)
}

type PgProvisioner struct {
	pool *pgxpool.Pool
}

func NewPgProvisioner(pool *pgxpool.Pool) *PgProvisioner {
	return &PgProvisioner{pool: pool}
}

func (p *PgProvisioner) ProvisionAdmin(ctx context.Context, tenant domain.Tenant, admin domain.User) (domain.Tenant, domain.User, error) {
	if p == nil || p.pool == nil {
		return domain.Tenant{}, domain.User{}, errors.New("provisioner not configured")
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Tenant{}, domain.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := ensureTenant(ctx, tx, tenant)
	if err != nil {
		return domain.Tenant{}, domain.User{}, err
	}
	admin.TenantID = current.ID
	if err := createUser(ctx, tx, admin); err != nil {
		return domain.Tenant{}, domain.User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Tenant{}, domain.User{}, err
	}
	return current, admin, nil
}
