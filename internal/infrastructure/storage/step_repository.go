package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	storagemodels "github.com/smilemakc/outreachctl/internal/infrastructure/storage/models"
	"github.com/smilemakc/outreachctl/pkg/models"
)

var _ repository.StepRepository = (*StepRepository)(nil)

// StepRepository implements repository.StepRepository using Bun.
type StepRepository struct {
	db *bun.DB
}

// NewStepRepository creates a new StepRepository.
func NewStepRepository(db *bun.DB) *StepRepository {
	return &StepRepository{db: db}
}

func (r *StepRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Step, error) {
	var rows []*storagemodels.StepModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("campaign_id = ?", campaignID).
		Order("\"order\" ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	out := make([]*models.Step, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// ReplaceAll atomically replaces the step set for a campaign, matching the
// "Steps list/replace" command of spec.md §6 (steps form a total order so
// partial updates would require re-deriving ordering anyway).
func (r *StepRepository) ReplaceAll(ctx context.Context, campaignID uuid.UUID, steps []*models.Step) error {
	ordered := append([]*models.Step(nil), steps...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*storagemodels.StepModel)(nil)).
			Where("campaign_id = ?", campaignID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear steps: %w", err)
		}

		if len(ordered) == 0 {
			return nil
		}

		rows := make([]*storagemodels.StepModel, 0, len(ordered))
		for _, s := range ordered {
			s.CampaignID = campaignID
			row := storagemodels.FromDomainStep(s)
			if err := row.BeforeInsert(ctx); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert steps: %w", err)
		}
		for i, row := range rows {
			*ordered[i] = *row.ToDomain()
		}
		return nil
	})
}
