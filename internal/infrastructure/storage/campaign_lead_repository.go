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

var _ repository.CampaignLeadRepository = (*CampaignLeadRepository)(nil)

// CampaignLeadRepository implements repository.CampaignLeadRepository
// using Bun.
type CampaignLeadRepository struct {
	db *bun.DB
}

// NewCampaignLeadRepository creates a new CampaignLeadRepository.
func NewCampaignLeadRepository(db *bun.DB) *CampaignLeadRepository {
	return &CampaignLeadRepository{db: db}
}

func (r *CampaignLeadRepository) Create(ctx context.Context, l *models.CampaignLead) error {
	row := storagemodels.FromDomainLead(l)
	if err := row.BeforeInsert(ctx); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	*l = *row.ToDomain()
	return nil
}

// BulkCreate inserts leads, skipping any whose (campaign_id,
// external_person_id) already exists (spec.md §4.9 step 5), via
// `ON CONFLICT DO NOTHING` against the unique index.
func (r *CampaignLeadRepository) BulkCreate(ctx context.Context, leads []*models.CampaignLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	rows := make([]*storagemodels.CampaignLeadModel, 0, len(leads))
	for _, l := range leads {
		row := storagemodels.FromDomainLead(l)
		if err := row.BeforeInsert(ctx); err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	res, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (campaign_id, external_person_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert leads: %w", err)
	}
	n, _ := res.RowsAffected()
	for i, row := range rows {
		*leads[i] = *row.ToDomain()
	}
	return int(n), nil
}

func (r *CampaignLeadRepository) Update(ctx context.Context, l *models.CampaignLead) error {
	row := storagemodels.FromDomainLead(l)
	if err := row.BeforeUpdate(ctx); err != nil {
		return err
	}
	res, err := r.db.NewUpdate().
		Model(row).
		Column("status", "current_step_order", "enriched_email", "enriched_linkedin_url", "enriched_at", "snapshot", "updated_at").
		Where("id = ?", row.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrLeadNotFound
	}
	l.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *CampaignLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CampaignLead, error) {
	row := new(storagemodels.CampaignLeadModel)
	err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *CampaignLeadRepository) ExistsByExternalPersonID(ctx context.Context, campaignID uuid.UUID, externalPersonID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*storagemodels.CampaignLeadModel)(nil)).
		Where("campaign_id = ? AND external_person_id = ?", campaignID, externalPersonID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check lead existence: %w", err)
	}
	return exists, nil
}

func (r *CampaignLeadRepository) ListActiveByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.CampaignLead, error) {
	var rows []*storagemodels.CampaignLeadModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("campaign_id = ? AND status = ?", campaignID, "active").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active leads: %w", err)
	}
	out := make([]*models.CampaignLead, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func (r *CampaignLeadRepository) List(ctx context.Context, filter repository.CampaignLeadFilter) ([]*models.CampaignLead, int, error) {
	var rows []*storagemodels.CampaignLeadModel
	q := r.db.NewSelect().Model(&rows).Where("campaign_id = ?", filter.CampaignID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	err = q.Order("created_at ASC").Limit(limit).Offset((page - 1) * limit).Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	out := make([]*models.CampaignLead, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, total, nil
}

// FindEnrichedByExternalPersonID implements the primary branch of spec.md
// §4.5 step 2: any tenant's row for this external person id that has
// already been enriched, most recent first.
func (r *CampaignLeadRepository) FindEnrichedByExternalPersonID(ctx context.Context, externalPersonID string) (*models.CampaignLead, error) {
	row := new(storagemodels.CampaignLeadModel)
	err := r.db.NewSelect().
		Model(row).
		Where("external_person_id = ? AND enriched_at IS NOT NULL", externalPersonID).
		Order("enriched_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find enriched lead: %w", err)
	}
	return row.ToDomain(), nil
}

// FindEnrichedByIdentity implements the fallback branch of spec.md §4.5
// step 2: same (email, name, company) tuple, used when leads sourced from
// different providers don't share an external_person_id.
func (r *CampaignLeadRepository) FindEnrichedByIdentity(ctx context.Context, email, name, company string) (*models.CampaignLead, error) {
	if email == "" && name == "" && company == "" {
		return nil, nil
	}
	row := new(storagemodels.CampaignLeadModel)
	q := r.db.NewSelect().
		Model(row).
		Where("enriched_at IS NOT NULL")
	if email != "" {
		q = q.Where("enriched_email = ?", email)
	}
	if name != "" {
		q = q.Where("(snapshot->>'first_name' || ' ' || snapshot->>'last_name') ILIKE ?", name)
	}
	if company != "" {
		q = q.Where("snapshot->>'company' ILIKE ?", company)
	}
	err := q.Order("enriched_at DESC").Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find enriched lead by identity: %w", err)
	}
	return row.ToDomain(), nil
}
