package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	storagemodels "github.com/smilemakc/outreachctl/internal/infrastructure/storage/models"
	"github.com/smilemakc/outreachctl/pkg/models"
)

var _ repository.ProviderAccountRepository = (*ProviderAccountRepository)(nil)

// ProviderAccountRepository implements repository.ProviderAccountRepository
// (C4's storage) using Bun.
type ProviderAccountRepository struct {
	db *bun.DB
}

// NewProviderAccountRepository creates a new ProviderAccountRepository.
func NewProviderAccountRepository(db *bun.DB) *ProviderAccountRepository {
	return &ProviderAccountRepository{db: db}
}

// ListActiveByTenantAndProvider returns a tenant's healthy accounts for a
// provider ordered by created_at desc, matching C4's `pick` precedence
// (spec.md §4.4): most recently created healthy account first.
func (r *ProviderAccountRepository) ListActiveByTenantAndProvider(ctx context.Context, tenantID uuid.UUID, provider string) ([]*models.ProviderAccount, error) {
	var rows []*storagemodels.ProviderAccountModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("tenant_id = ? AND provider = ? AND status = ?", tenantID, provider, "active").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	out := make([]*models.ProviderAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func (r *ProviderAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProviderAccount, error) {
	row := new(storagemodels.ProviderAccountModel)
	err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *ProviderAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProviderAccountStatus, needsReconnect bool) error {
	res, err := r.db.NewUpdate().
		Model((*storagemodels.ProviderAccountModel)(nil)).
		Set("status = ?", string(status)).
		Set("needs_reconnect = ?", needsReconnect).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// SumDailyCap implements the `sum(daily_cap) over active linkedin
// accounts` term of C2's Quota Gate (spec.md §4.2).
func (r *ProviderAccountRepository) SumDailyCap(ctx context.Context, tenantID uuid.UUID, provider string) (int, error) {
	var sum sql.NullInt64
	err := r.db.NewSelect().
		Model((*storagemodels.ProviderAccountModel)(nil)).
		ColumnExpr("COALESCE(SUM(daily_cap), 0)").
		Where("tenant_id = ? AND provider = ? AND status = ?", tenantID, provider, "active").
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum daily cap: %w", err)
	}
	return int(sum.Int64), nil
}

func (r *ProviderAccountRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.ProviderAccount, error) {
	var rows []*storagemodels.ProviderAccountModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	out := make([]*models.ProviderAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
