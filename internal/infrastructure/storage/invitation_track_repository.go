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

var _ repository.InvitationTrackRepository = (*InvitationTrackRepository)(nil)

// InvitationTrackRepository implements repository.InvitationTrackRepository
// (C11's storage) using Bun.
type InvitationTrackRepository struct {
	db *bun.DB
}

// NewInvitationTrackRepository creates a new InvitationTrackRepository.
func NewInvitationTrackRepository(db *bun.DB) *InvitationTrackRepository {
	return &InvitationTrackRepository{db: db}
}

// Upsert records or updates the tracked invitation for a (campaign_lead_id,
// external_invitation_id) pair.
func (r *InvitationTrackRepository) Upsert(ctx context.Context, t *models.InvitationTrack) error {
	row := &storagemodels.InvitationTrackModel{
		TenantID:             t.TenantID,
		CampaignID:           t.CampaignID,
		CampaignLeadID:       t.CampaignLeadID,
		ExternalInvitationID: t.ExternalInvitationID,
		SentAt:               t.SentAt,
		LastSeenStatus:       string(t.LastSeenStatus),
	}
	if err := row.BeforeInsert(ctx); err != nil {
		return err
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (campaign_lead_id, external_invitation_id) DO UPDATE").
		Set("last_seen_status = EXCLUDED.last_seen_status").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert invitation track: %w", err)
	}
	*t = *row.ToDomain()
	return nil
}

func (r *InvitationTrackRepository) GetByLead(ctx context.Context, leadID uuid.UUID) (*models.InvitationTrack, error) {
	row := new(storagemodels.InvitationTrackModel)
	err := r.db.NewSelect().
		Model(row).
		Where("campaign_lead_id = ?", leadID).
		Order("sent_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation track: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *InvitationTrackRepository) ListPendingByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.InvitationTrack, error) {
	var rows []*storagemodels.InvitationTrackModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("tenant_id = ? AND last_seen_status = ?", tenantID, "pending").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}
	out := make([]*models.InvitationTrack, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
