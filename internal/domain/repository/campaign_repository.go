// Package repository defines the storage-agnostic contracts the core
// components are built against; internal/infrastructure/storage provides
// the Bun/Postgres implementation.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/pkg/models"
)

// CampaignFilter narrows a campaign listing.
type CampaignFilter struct {
	TenantID uuid.UUID
	Status   string
	Search   string
	Page     int
	Limit    int
}

// CampaignRepository persists Campaign rows.
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	Update(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]*models.Campaign, int, error)
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error

	// LockForDailyRun acquires a row-level lock on the campaign for the
	// duration of fn, using `SELECT ... FOR UPDATE SKIP LOCKED` (spec.md
	// §4.10 step 1). If the row is already locked by another run, fn is
	// not invoked and ok is false.
	LockForDailyRun(ctx context.Context, campaignID uuid.UUID, fn func(ctx context.Context, c *models.Campaign) error) (ok bool, err error)

	// ListExecutionEligible returns campaigns whose status is
	// execution-eligible (spec.md §9), for the scheduler's bootstrap scan.
	ListExecutionEligible(ctx context.Context) ([]*models.Campaign, error)
}

// StepRepository persists Step rows.
type StepRepository interface {
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Step, error)
	ReplaceAll(ctx context.Context, campaignID uuid.UUID, steps []*models.Step) error
}

// CampaignLeadFilter narrows a lead listing.
type CampaignLeadFilter struct {
	CampaignID uuid.UUID
	TenantID   uuid.UUID
	Status     string
	Page       int
	Limit      int
}

// CampaignLeadRepository persists CampaignLead rows.
type CampaignLeadRepository interface {
	Create(ctx context.Context, l *models.CampaignLead) error
	BulkCreate(ctx context.Context, leads []*models.CampaignLead) (inserted int, err error)
	Update(ctx context.Context, l *models.CampaignLead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CampaignLead, error)
	ExistsByExternalPersonID(ctx context.Context, campaignID uuid.UUID, externalPersonID string) (bool, error)
	ListActiveByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.CampaignLead, error)
	List(ctx context.Context, filter CampaignLeadFilter) ([]*models.CampaignLead, int, error)

	// FindEnrichedByExternalPersonID and FindEnrichedByIdentity implement
	// C5 step 2: look up a previously enriched lead across all tenants by
	// external person id, or by the (email, name, company) tuple fallback.
	FindEnrichedByExternalPersonID(ctx context.Context, externalPersonID string) (*models.CampaignLead, error)
	FindEnrichedByIdentity(ctx context.Context, email, name, company string) (*models.CampaignLead, error)
}
