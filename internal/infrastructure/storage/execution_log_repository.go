package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	storagemodels "github.com/smilemakc/outreachctl/internal/infrastructure/storage/models"
	"github.com/smilemakc/outreachctl/pkg/models"
)

var _ repository.ExecutionLogRepository = (*ExecutionLogRepository)(nil)

// ExecutionLogRepository implements repository.ExecutionLogRepository
// using Bun.
type ExecutionLogRepository struct {
	db *bun.DB
}

// NewExecutionLogRepository creates a new ExecutionLogRepository.
func NewExecutionLogRepository(db *bun.DB) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db}
}

func (r *ExecutionLogRepository) Record(ctx context.Context, l *models.ExecutionLog) error {
	row := &storagemodels.ExecutionLogModel{
		TenantID:        l.TenantID,
		CampaignID:      l.CampaignID,
		Status:          string(l.Status),
		SkipReason:      l.SkipReason,
		LeadsAdvanced:   l.LeadsAdvanced,
		LeadsCompleted:  l.LeadsCompleted,
		LeadsStopped:    l.LeadsStopped,
		ActivitiesCount: l.ActivitiesCount,
		ErrorMessage:    l.ErrorMessage,
		RanAt:           l.RanAt,
	}
	if err := row.BeforeInsert(ctx); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to record execution log: %w", err)
	}
	*l = *row.ToDomain()
	return nil
}

func (r *ExecutionLogRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]*models.ExecutionLog, error) {
	if limit <= 0 {
		limit = 30
	}
	var rows []*storagemodels.ExecutionLogModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("campaign_id = ?", campaignID).
		Order("ran_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %w", err)
	}
	out := make([]*models.ExecutionLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
