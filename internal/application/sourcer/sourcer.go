// Package sourcer implements spec.md §4.9's Lead Sourcer (C9): pulls new
// leads for a campaign's lead_generation step from the live lead-source
// provider, paginating through its offset bookkeeping and deduping
// against leads already known to the campaign.
//
// Grounded on the retrieval pack's AutomationProcessor
// (other_examples/0c17e6fe_Web-Star-Studio-lead-gen-worker) for its
// batch-run-with-structured-logging shape — "log start, do bounded work,
// log summary" — adapted here to the teacher's own structured logger
// instead of that file's stdlib log.Printf wrapper.
package sourcer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/providers"
	"github.com/smilemakc/outreachctl/pkg/models"
)

const (
	defaultLeadsPerDay = 50
	pageSize           = 100
	// maxPagesPerRun bounds how many provider pages a single run will
	// walk while trying to fill a shortfall, so a filter that matches
	// far fewer leads than requested cannot turn into an unbounded loop.
	maxPagesPerRun = 10
)

// Result reports what a Source run did.
type Result struct {
	Skipped   bool
	Reason    string
	Requested int
	Saved     int
}

// activityRecorder is the narrow ledger dependency this package needs.
type activityRecorder interface {
	Record(ctx context.Context, a *models.Activity) (uuid.UUID, error)
}

// Sourcer runs a campaign's lead_generation step once per day.
type Sourcer struct {
	campaigns repository.CampaignRepository
	leads     repository.CampaignLeadRepository
	source    providers.LeadSourceClient
	ledger    activityRecorder
	logger    *logger.Logger
}

// New creates a Sourcer.
func New(campaigns repository.CampaignRepository, leads repository.CampaignLeadRepository, source providers.LeadSourceClient, ledger activityRecorder, l *logger.Logger) *Sourcer {
	return &Sourcer{campaigns: campaigns, leads: leads, source: source, ledger: ledger, logger: l}
}

// Source implements spec.md §4.9's algorithm for campaign's
// lead_generation step, evaluated against today (already normalized to the
// tenant's local calendar day by the caller).
func (s *Sourcer) Source(ctx context.Context, campaign *models.Campaign, step *models.Step, today models.Date) (Result, error) {
	leadsPerDay := campaign.Config.LeadsPerDay
	if leadsPerDay <= 0 {
		leadsPerDay = step.Config.LeadGenerationLimit
	}
	if leadsPerDay <= 0 {
		leadsPerDay = defaultLeadsPerDay
	}
	if leadsPerDay <= 0 {
		return Result{Skipped: true, Reason: "invalid_leads_per_day"}, nil
	}

	if campaign.Config.LastLeadGenDate != nil && campaign.Config.LastLeadGenDate.Equal(today) {
		return Result{Skipped: true, Reason: "already_ran_today"}, nil
	}

	offset := campaign.Config.LeadGenOffset
	page := offset/pageSize + 1
	offsetInPage := offset % pageSize

	candidates, err := s.fetchCandidates(ctx, step.Config.LeadGenerationFilters, page, offsetInPage, leadsPerDay)
	if err != nil {
		return Result{}, fmt.Errorf("fetch candidates: %w", err)
	}

	var firstInserted *models.CampaignLead
	saved := 0
	for _, snapshot := range candidates {
		externalID := externalPersonID(snapshot)
		exists, err := s.leads.ExistsByExternalPersonID(ctx, campaign.ID, externalID)
		if err != nil {
			return Result{}, fmt.Errorf("check existing lead: %w", err)
		}
		if exists {
			continue
		}

		lead := &models.CampaignLead{
			ID:               uuid.New(),
			CampaignID:       campaign.ID,
			TenantID:         campaign.TenantID,
			ExternalPersonID: externalID,
			Status:           models.LeadActive,
			Snapshot:         snapshot,
		}
		if err := s.leads.Create(ctx, lead); err != nil {
			return Result{}, fmt.Errorf("create lead: %w", err)
		}
		if firstInserted == nil {
			firstInserted = lead
		}
		saved++
	}

	campaign.Config.LeadGenOffset += saved
	campaign.Config.LastLeadGenDate = &today
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return Result{}, fmt.Errorf("persist lead-gen offset: %w", err)
	}

	if firstInserted != nil {
		if _, err := s.ledger.Record(ctx, &models.Activity{
			TenantID:       campaign.TenantID,
			CampaignID:     campaign.ID,
			CampaignLeadID: firstInserted.ID,
			StepID:         step.ID,
			StepType:       models.StepLeadGeneration,
			ActionType:     string(models.StepLeadGeneration),
			Status:         models.ActivitySent,
			MessageContent: fmt.Sprintf("sourced %d new lead(s) for campaign", saved),
			Metadata:       map[string]any{"requested": leadsPerDay, "saved": saved},
		}); err != nil {
			s.logger.ErrorContext(ctx, "sourcer: failed to record lead_generation activity", "campaign_id", campaign.ID, "error", err)
		}
	}

	return Result{Requested: leadsPerDay, Saved: saved}, nil
}

// fetchCandidates walks the lead-source provider's pages starting at
// page, skipping offsetInPage rows on the first page, until it has
// wanted leads or the provider runs dry or maxPagesPerRun is hit.
func (s *Sourcer) fetchCandidates(ctx context.Context, filters *models.LeadGenerationFilters, page, offsetInPage, wanted int) ([]models.LeadSnapshot, error) {
	var out []models.LeadSnapshot
	skip := offsetInPage

	for pagesWalked := 0; pagesWalked < maxPagesPerRun && len(out) < wanted; pagesWalked++ {
		leads, outcome := s.source.Search(ctx, filters, page+pagesWalked, pageSize)
		if !outcome.IsOK() {
			return nil, fmt.Errorf("lead source search failed: %s", outcome.Error)
		}
		if skip > 0 {
			if skip >= len(leads) {
				skip -= len(leads)
				leads = nil
			} else {
				leads = leads[skip:]
				skip = 0
			}
		}
		out = append(out, leads...)
		if len(leads) < pageSize {
			break // provider exhausted
		}
	}

	if len(out) > wanted {
		out = out[:wanted]
	}
	return out, nil
}

// externalPersonID derives a stable dedup key for a sourced snapshot.
// Apollo-shaped providers surface no separate external id in
// LeadSnapshot, so the (name, company) pair stands in for one; C5's
// cross-tenant match additionally keys on this value.
func externalPersonID(s models.LeadSnapshot) string {
	return s.FirstName + "|" + s.LastName + "|" + s.Company
}
