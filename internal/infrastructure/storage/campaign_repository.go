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

var _ repository.CampaignRepository = (*CampaignRepository)(nil)

// CampaignRepository implements repository.CampaignRepository using Bun.
type CampaignRepository struct {
	db *bun.DB
}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *bun.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	row := storagemodels.FromDomainCampaign(c)
	if err := row.BeforeInsert(ctx); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	*c = *row.ToDomain()
	return nil
}

func (r *CampaignRepository) Update(ctx context.Context, c *models.Campaign) error {
	row := storagemodels.FromDomainCampaign(c)
	if err := row.BeforeUpdate(ctx); err != nil {
		return err
	}
	res, err := r.db.NewUpdate().
		Model(row).
		Column("name", "status", "config", "execution_state", "last_run_date", "is_deleted", "updated_at").
		Where("id = ? AND tenant_id = ?", row.ID, row.TenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrCampaignNotFound
	}
	c.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error) {
	row := new(storagemodels.CampaignModel)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ? AND tenant_id = ? AND is_deleted = false", id, tenantID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *CampaignRepository) List(ctx context.Context, filter repository.CampaignFilter) ([]*models.Campaign, int, error) {
	var rows []*storagemodels.CampaignModel
	q := r.db.NewSelect().
		Model(&rows).
		Where("tenant_id = ? AND is_deleted = false", filter.TenantID)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	err = q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	out := make([]*models.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, total, nil
}

func (r *CampaignRepository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := r.db.NewUpdate().
		Model((*storagemodels.CampaignModel)(nil)).
		Set("is_deleted = true").
		Set("updated_at = now()").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrCampaignNotFound
	}
	return nil
}

// LockForDailyRun implements spec.md §4.10 step 1 with a
// `SELECT ... FOR UPDATE SKIP LOCKED` row lock held for the duration of fn.
func (r *CampaignRepository) LockForDailyRun(ctx context.Context, campaignID uuid.UUID, fn func(ctx context.Context, c *models.Campaign) error) (bool, error) {
	var acquired bool
	txErr := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(storagemodels.CampaignModel)
		err := tx.NewSelect().
			Model(row).
			Where("id = ? AND is_deleted = false", campaignID).
			For("UPDATE SKIP LOCKED").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock campaign: %w", err)
		}
		acquired = true
		return fn(ctx, row.ToDomain())
	})
	if txErr != nil {
		return acquired, txErr
	}
	return acquired, nil
}

// ListExecutionEligible returns campaigns whose status is running or the
// legacy active synonym, for the scheduler bootstrap scan.
func (r *CampaignRepository) ListExecutionEligible(ctx context.Context) ([]*models.Campaign, error) {
	var rows []*storagemodels.CampaignModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_deleted = false AND status IN (?, ?)", "running", "active").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution-eligible campaigns: %w", err)
	}
	out := make([]*models.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
