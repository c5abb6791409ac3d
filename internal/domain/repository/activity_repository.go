package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/pkg/models"
)

// ActivityFilter narrows an activity listing.
type ActivityFilter struct {
	TenantID   uuid.UUID
	CampaignID uuid.UUID
	LeadID     uuid.UUID
	Page       int
	Limit      int
}

// ActivityRepository persists the append-only Activity ledger (C1).
type ActivityRepository interface {
	// Record inserts a new Activity, or upserts onto the existing
	// terminal-success row for (campaign_lead_id, step_id) per spec.md
	// §4.1; returns the row's id.
	Record(ctx context.Context, a *models.Activity) (uuid.UUID, error)

	// UpdateResult moves the row id from "sent" to its dispatch outcome in
	// place (spec.md §4.7 step 4), rather than inserting a second row for
	// the same attempt.
	UpdateResult(ctx context.Context, id uuid.UUID, status models.ActivityStatus, content, errorMessage string, metadata map[string]any) error

	LatestSuccess(ctx context.Context, leadID, stepID uuid.UUID) (*models.Activity, error)
	LatestSuccessForLead(ctx context.Context, leadID uuid.UUID) (*models.Activity, error)
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error)

	CountByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, statuses []models.ActivityStatus, stepType models.StepType, since, until time.Time) (int, error)
	CountForStep(ctx context.Context, campaignID, stepID uuid.UUID, status models.ActivityStatus) (int, error)

	List(ctx context.Context, filter ActivityFilter) ([]*models.Activity, int, error)

	// PromoteStatus updates the most recent row for (leadID, stepType) in
	// fromStatus to toStatus, used by C11 to promote delivered → connected
	// (spec.md §4.11).
	PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error

	// StatsByCampaign aggregates counts by status for a campaign (SPEC_FULL §7 stats
	// endpoint).
	StatsByCampaign(ctx context.Context, campaignID uuid.UUID) (map[models.ActivityStatus]int, error)
}

// ProviderAccountRepository persists ProviderAccount rows (C4).
type ProviderAccountRepository interface {
	ListActiveByTenantAndProvider(ctx context.Context, tenantID uuid.UUID, provider string) ([]*models.ProviderAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProviderAccount, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProviderAccountStatus, needsReconnect bool) error
	SumDailyCap(ctx context.Context, tenantID uuid.UUID, provider string) (int, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.ProviderAccount, error)
}

// InvitationTrackRepository persists InvitationTrack rows (C11).
type InvitationTrackRepository interface {
	Upsert(ctx context.Context, t *models.InvitationTrack) error
	GetByLead(ctx context.Context, leadID uuid.UUID) (*models.InvitationTrack, error)
	ListPendingByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.InvitationTrack, error)
}

// ExecutionLogRepository persists campaign_execution_log rows.
type ExecutionLogRepository interface {
	Record(ctx context.Context, l *models.ExecutionLog) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]*models.ExecutionLog, error)
}

// TenantRepository persists TenantSettings rows.
type TenantRepository interface {
	GetSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error)
	UpsertSettings(ctx context.Context, s *models.TenantSettings) error
	ListTenantsWithActiveAccounts(ctx context.Context, provider string) ([]uuid.UUID, error)
}
