// Package poller implements spec.md §4.11's Polling Worker (C11): a
// fixed thrice-daily cron sweep that, for every tenant with at least one
// active LinkedIn account and one non-terminal campaign, polls Unipile for
// that tenant's recent invitations and reconciles InvitationTrack rows,
// promoting delivered LinkedIn-connect Activities to connected or error
// when an invitation's real-world status resolves.
//
// Grounded on internal/application/trigger/cron_scheduler.go's
// robfig/cron lifecycle (Start/Stop wrapping a single cron.Cron), run here
// as a second independent schedule from C10's — §4.11 names its own fixed
// expression (POLL_SCHEDULE), distinct from C10's per-campaign one-shot
// self-enqueue.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/smilemakc/outreachctl/internal/application/eventbus"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/providers"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// interTenantDelay rate-limits the sequential per-tenant Unipile sweep,
// per spec.md §4.11.
const interTenantDelay = 2 * time.Second

// activityPromoter is the narrow ledger dependency this package needs.
type activityPromoter interface {
	PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error
}

// Result reports one tenant's sweep outcome.
type Result struct {
	TenantID     uuid.UUID
	Reconciled   int
	Promoted     int
	Errored      int
}

// Poller runs spec.md §4.11's invitation-reconciliation sweep.
type Poller struct {
	tenants      repository.TenantRepository
	invitations  repository.InvitationTrackRepository
	activities   activityPromoter
	linkedin     providers.LinkedInClient
	accounts     repository.ProviderAccountRepository
	bus          *eventbus.Bus
	schedule     string
	cron         *cron.Cron
	logger       *logger.Logger
}

// New creates a Poller. schedule is spec.md §6's POLL_SCHEDULE cron
// expression.
func New(
	tenants repository.TenantRepository,
	invitations repository.InvitationTrackRepository,
	activities activityPromoter,
	linkedin providers.LinkedInClient,
	accounts repository.ProviderAccountRepository,
	bus *eventbus.Bus,
	schedule string,
	l *logger.Logger,
) *Poller {
	return &Poller{
		tenants:     tenants,
		invitations: invitations,
		activities:  activities,
		linkedin:    linkedin,
		accounts:    accounts,
		bus:         bus,
		schedule:    schedule,
		cron:        cron.New(cron.WithLocation(time.UTC)),
		logger:      l,
	}
}

// Start registers the fixed sweep on the cron clock and starts it.
func (p *Poller) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := p.SweepAll(ctx); err != nil {
			p.logger.ErrorContext(ctx, "poller: sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register poll schedule %q: %w", p.schedule, err)
	}
	p.cron.Start()
	return nil
}

// Stop drains the cron clock.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
}

// SweepAll runs spec.md §4.11's sweep once, sequentially, across every
// tenant with at least one active LinkedIn account and at least one
// running, active or paused campaign.
func (p *Poller) SweepAll(ctx context.Context) error {
	tenantIDs, err := p.tenants.ListTenantsWithActiveAccounts(ctx, "linkedin")
	if err != nil {
		return fmt.Errorf("list tenants with active linkedin accounts: %w", err)
	}

	for i, tenantID := range tenantIDs {
		if i > 0 {
			time.Sleep(interTenantDelay)
		}
		result, err := p.sweepTenant(ctx, tenantID)
		if err != nil {
			p.logger.ErrorContext(ctx, "poller: tenant sweep failed", "tenant_id", tenantID, "error", err)
			continue
		}
		p.logger.InfoContext(ctx, "poller: tenant sweep complete", "tenant_id", tenantID, "reconciled", result.Reconciled, "promoted", result.Promoted, "errored", result.Errored)
	}
	return nil
}

// sweepTenant reconciles one tenant's pending InvitationTrack rows against
// Unipile's view of the tenant's sent invitations.
func (p *Poller) sweepTenant(ctx context.Context, tenantID uuid.UUID) (Result, error) {
	result := Result{TenantID: tenantID}

	accounts, err := p.accounts.ListActiveByTenantAndProvider(ctx, tenantID, "linkedin")
	if err != nil {
		return result, fmt.Errorf("list active linkedin accounts: %w", err)
	}
	if len(accounts) == 0 {
		return result, nil
	}

	pending, err := p.invitations.ListPendingByTenant(ctx, tenantID)
	if err != nil {
		return result, fmt.Errorf("list pending invitations: %w", err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	statuses := make(map[string]models.InvitationLastSeenStatus)
	for _, account := range accounts {
		outcome := p.linkedin.ListInvitations(ctx, account, nil)
		if !outcome.IsOK() {
			p.logger.ErrorContext(ctx, "poller: list invitations failed", "tenant_id", tenantID, "account_id", account.ID, "error", outcome.Error)
			continue
		}
		for _, raw := range rawInvitations(outcome) {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, _ := item["id"].(string)
			status, _ := item["status"].(string)
			if id == "" {
				continue
			}
			statuses[id] = mapInvitationStatus(status)
		}
	}

	for _, track := range pending {
		observed, seen := statuses[track.ExternalInvitationID]
		if !seen || observed == track.LastSeenStatus {
			continue
		}
		result.Reconciled++

		track.LastSeenStatus = observed
		track.UpdatedAt = time.Now()
		if err := p.invitations.Upsert(ctx, track); err != nil {
			p.logger.ErrorContext(ctx, "poller: failed to upsert invitation track", "track_id", track.ID, "error", err)
			continue
		}

		switch observed {
		case models.InvitationAccepted:
			if err := p.activities.PromoteStatus(ctx, track.CampaignLeadID, models.StepLinkedInConnect, models.ActivityDelivered, models.ActivityConnected, ""); err != nil {
				p.logger.ErrorContext(ctx, "poller: failed to promote activity to connected", "lead_id", track.CampaignLeadID, "error", err)
				continue
			}
			p.bus.Publish(ctx, eventbus.TopicCampaignStats, eventbus.Event{
				Type: eventbus.EventTypeCampaignStats, Topic: eventbus.CampaignTopic(track.CampaignID),
				TenantID: tenantID, CampaignID: &track.CampaignID, Timestamp: time.Now(),
				Data: map[string]any{"campaign_lead_id": track.CampaignLeadID, "status": "connected"},
			})
			result.Promoted++

		case models.InvitationDeclined, models.InvitationWithdrawn:
			if err := p.activities.PromoteStatus(ctx, track.CampaignLeadID, models.StepLinkedInConnect, models.ActivityDelivered, models.ActivityError, string(observed)); err != nil {
				p.logger.ErrorContext(ctx, "poller: failed to promote activity to error", "lead_id", track.CampaignLeadID, "error", err)
				continue
			}
			result.Errored++
		}
	}

	return result, nil
}

func rawInvitations(outcome models.ProviderOutcome) []any {
	items, _ := outcome.Data["invitations"].([]any)
	return items
}

func mapInvitationStatus(raw string) models.InvitationLastSeenStatus {
	switch raw {
	case "accepted", "ACCEPTED":
		return models.InvitationAccepted
	case "declined", "DECLINED", "ignored", "IGNORED":
		return models.InvitationDeclined
	case "withdrawn", "WITHDRAWN", "cancelled", "CANCELLED":
		return models.InvitationWithdrawn
	case "pending", "PENDING", "sent", "SENT":
		return models.InvitationPending
	default:
		return models.InvitationUnknown
	}
}
