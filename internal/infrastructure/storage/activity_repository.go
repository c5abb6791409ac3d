package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	storagemodels "github.com/smilemakc/outreachctl/internal/infrastructure/storage/models"
	"github.com/smilemakc/outreachctl/pkg/models"
)

var _ repository.ActivityRepository = (*ActivityRepository)(nil)

// ActivityRepository implements repository.ActivityRepository (C1's
// storage) using Bun. Writes are serializable per (lead, step) via a
// partial unique index covering the terminal-success status set, matched
// with `ON CONFLICT DO UPDATE` (spec.md §4.1).
type ActivityRepository struct {
	db *bun.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *bun.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Record inserts a new Activity. If the row is a terminal-success status
// and a terminal-success row already exists for (campaign_lead_id,
// step_id), the existing row is updated in place instead of duplicated,
// matching the partial unique index described in SPEC_FULL §3. Non
// terminal-success statuses (sent, error, skipped, ...) are always
// plain inserts, since spec.md §3 allows multiple of those.
func (r *ActivityRepository) Record(ctx context.Context, a *models.Activity) (uuid.UUID, error) {
	row := storagemodels.FromDomainActivity(a)
	if err := row.BeforeInsert(ctx); err != nil {
		return uuid.Nil, err
	}

	if !row.IsTerminalSuccess() {
		if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
			return uuid.Nil, fmt.Errorf("failed to record activity: %w", err)
		}
		*a = *row.ToDomain()
		return row.ID, nil
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (campaign_lead_id, step_id) WHERE status IN ('delivered','connected','replied') DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("message_content = EXCLUDED.message_content").
		Set("error_message = EXCLUDED.error_message").
		Set("metadata = EXCLUDED.metadata").
		Exec(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record terminal activity: %w", err)
	}
	*a = *row.ToDomain()
	return row.ID, nil
}

// UpdateResult moves the row id (the "sent" row Execute recorded before
// dispatch) to status in place, per spec.md §4.7 step 4. Using the id
// directly, rather than a (lead, step) lookup like PromoteStatus, avoids
// ever leaving both the "sent" row and its terminal outcome on the table
// at once, which would double-count toward C2's quota window.
func (r *ActivityRepository) UpdateResult(ctx context.Context, id uuid.UUID, status models.ActivityStatus, content, errorMessage string, metadata map[string]any) error {
	q := r.db.NewUpdate().
		Model((*storagemodels.ActivityModel)(nil)).
		Set("status = ?", string(status)).
		Set("message_content = ?", content).
		Set("error_message = ?", errorMessage).
		Where("id = ?", id)
	if metadata != nil {
		q = q.Set("metadata = ?", storagemodels.JSONBMap(metadata))
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update activity result: %w", err)
	}
	return nil
}

func (r *ActivityRepository) LatestSuccess(ctx context.Context, leadID, stepID uuid.UUID) (*models.Activity, error) {
	row := new(storagemodels.ActivityModel)
	err := r.db.NewSelect().
		Model(row).
		Where("campaign_lead_id = ? AND step_id = ? AND status IN (?, ?, ?)",
			leadID, stepID, "delivered", "connected", "replied").
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest success: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *ActivityRepository) LatestSuccessForLead(ctx context.Context, leadID uuid.UUID) (*models.Activity, error) {
	row := new(storagemodels.ActivityModel)
	err := r.db.NewSelect().
		Model(row).
		Where("campaign_lead_id = ? AND status IN (?, ?, ?)",
			leadID, "delivered", "connected", "replied").
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest success for lead: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *ActivityRepository) ListForLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error) {
	var rows []*storagemodels.ActivityModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("campaign_lead_id = ?", leadID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities for lead: %w", err)
	}
	out := make([]*models.Activity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func (r *ActivityRepository) CountByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, statuses []models.ActivityStatus, stepType models.StepType, since, until time.Time) (int, error) {
	strStatuses := make([]string, 0, len(statuses))
	for _, s := range statuses {
		strStatuses = append(strStatuses, string(s))
	}
	count, err := r.db.NewSelect().
		Model((*storagemodels.ActivityModel)(nil)).
		Where("tenant_id = ? AND status IN (?) AND step_type = ? AND created_at >= ? AND created_at < ?",
			tenantID, bun.In(strStatuses), string(stepType), since, until).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func (r *ActivityRepository) CountForStep(ctx context.Context, campaignID, stepID uuid.UUID, status models.ActivityStatus) (int, error) {
	count, err := r.db.NewSelect().
		Model((*storagemodels.ActivityModel)(nil)).
		Where("campaign_id = ? AND step_id = ? AND status = ?", campaignID, stepID, string(status)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities for step: %w", err)
	}
	return count, nil
}

func (r *ActivityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]*models.Activity, int, error) {
	var rows []*storagemodels.ActivityModel
	q := r.db.NewSelect().Model(&rows).Where("campaign_id = ?", filter.CampaignID)
	if filter.LeadID != uuid.Nil {
		q = q.Where("campaign_lead_id = ?", filter.LeadID)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	err = q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	out := make([]*models.Activity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, total, nil
}

// PromoteStatus implements C11's invitation-outcome promotion (spec.md
// §4.11): the most recent row for (leadID, stepType) in fromStatus moves
// to toStatus.
func (r *ActivityRepository) PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error {
	row := new(storagemodels.ActivityModel)
	err := r.db.NewSelect().
		Model(row).
		Where("campaign_lead_id = ? AND step_type = ? AND status = ?", leadID, string(stepType), string(fromStatus)).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to find activity to promote: %w", err)
	}

	q := r.db.NewUpdate().
		Model(row).
		Set("status = ?", string(toStatus)).
		Where("id = ?", row.ID)
	if errorMessage != "" {
		q = q.Set("error_message = ?", errorMessage)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to promote activity status: %w", err)
	}
	return nil
}

func (r *ActivityRepository) StatsByCampaign(ctx context.Context, campaignID uuid.UUID) (map[models.ActivityStatus]int, error) {
	var results []struct {
		Status string `bun:"status"`
		Count  int    `bun:"count"`
	}
	err := r.db.NewSelect().
		Model((*storagemodels.ActivityModel)(nil)).
		ColumnExpr("status, count(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(ctx, &results)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate campaign stats: %w", err)
	}
	out := make(map[models.ActivityStatus]int, len(results))
	for _, r := range results {
		out[models.ActivityStatus(r.Status)] = r.Count
	}
	return out, nil
}
