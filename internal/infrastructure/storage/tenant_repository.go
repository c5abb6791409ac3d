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

var _ repository.TenantRepository = (*TenantRepository)(nil)

// TenantRepository implements repository.TenantRepository using Bun.
// Tenant itself is opaque (spec.md §3); this only owns the
// per-tenant timezone setting SPEC_FULL §7 adds.
type TenantRepository struct {
	db *bun.DB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *bun.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) GetSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error) {
	row := new(storagemodels.TenantSettingsModel)
	err := r.db.NewSelect().Model(row).Where("tenant_id = ?", tenantID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.TenantSettings{TenantID: tenantID, TZ: "UTC"}, nil
		}
		return nil, fmt.Errorf("failed to get tenant settings: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *TenantRepository) UpsertSettings(ctx context.Context, s *models.TenantSettings) error {
	row := &storagemodels.TenantSettingsModel{TenantID: s.TenantID, TZ: s.TZ}
	if err := row.BeforeInsert(ctx); err != nil {
		return err
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (tenant_id) DO UPDATE").
		Set("tz = EXCLUDED.tz").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant settings: %w", err)
	}
	return nil
}

// ListTenantsWithActiveAccounts implements C11's tenant-selection
// condition (spec.md §4.11): tenants with at least one active account for
// the given provider and at least one non-deleted campaign that is
// running, active or paused.
func (r *TenantRepository) ListTenantsWithActiveAccounts(ctx context.Context, provider string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.NewSelect().
		Model((*storagemodels.ProviderAccountModel)(nil)).
		ColumnExpr("DISTINCT tenant_id").
		Where("provider = ? AND status = ?", provider, "active").
		Where("EXISTS (SELECT 1 FROM campaigns AS c WHERE c.tenant_id = pa.tenant_id AND c.is_deleted = false AND c.status IN ('running', 'active', 'paused'))").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants with active accounts: %w", err)
	}
	return ids, nil
}
