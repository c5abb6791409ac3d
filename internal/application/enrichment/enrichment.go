// Package enrichment implements spec.md §4.5's Enrichment Cache (C5): a
// three-step lookup (current campaign row, cross-tenant hit, live provider
// call) that never re-spends enrichment credits for a lead once resolved.
package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/providers"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// Result is the outcome of an Enrich call.
type Result struct {
	Lead           *models.CampaignLead
	CrossTenantHit bool
	Warning        string
}

// Cache resolves a lead's contact details, consulting the current
// campaign row, other tenants' enriched rows, and finally the live
// enrichment provider.
type Cache struct {
	leads  repository.CampaignLeadRepository
	client providers.EnrichmentClient
	logger *logger.Logger
}

// New creates a Cache.
func New(leads repository.CampaignLeadRepository, client providers.EnrichmentClient, l *logger.Logger) *Cache {
	return &Cache{leads: leads, client: client, logger: l}
}

// Enrich implements spec.md §4.5's algorithm for lead within campaign.
func (c *Cache) Enrich(ctx context.Context, lead *models.CampaignLead) (Result, error) {
	// Step 1: already enriched in this campaign row.
	if lead.EnrichedAt != nil {
		return Result{Lead: lead}, nil
	}

	// Step 2: cross-tenant hit by external_person_id, or by
	// (email, name, company) identity tuple.
	hit, err := c.leads.FindEnrichedByExternalPersonID(ctx, lead.ExternalPersonID)
	if err != nil {
		return Result{}, fmt.Errorf("cross-tenant lookup by external id: %w", err)
	}
	if hit == nil {
		name := lead.Snapshot.FirstName + " " + lead.Snapshot.LastName
		hit, err = c.leads.FindEnrichedByIdentity(ctx, lead.EnrichedEmail, name, lead.Snapshot.Company)
		if err != nil {
			return Result{}, fmt.Errorf("cross-tenant lookup by identity: %w", err)
		}
	}
	if hit != nil {
		lead.EnrichedEmail = hit.EnrichedEmail
		lead.EnrichedLinkedInURL = hit.EnrichedLinkedInURL
		now := time.Now()
		lead.EnrichedAt = &now
		if err := c.leads.Update(ctx, lead); err != nil {
			return Result{}, fmt.Errorf("persist cross-tenant enrichment: %w", err)
		}
		return Result{Lead: lead, CrossTenantHit: true}, nil
	}

	// Step 3: live provider call.
	result, outcome := c.client.EnrichPerson(ctx, lead.ExternalPersonID, map[string]any{
		"first_name": lead.Snapshot.FirstName,
		"last_name":  lead.Snapshot.LastName,
		"company":    lead.Snapshot.Company,
	})
	if !outcome.IsOK() {
		c.logger.WarnContext(ctx, "enrichment: live provider call failed",
			"lead_id", lead.ID, "error", outcome.Error)
		return Result{Lead: lead, Warning: "enrichment unavailable: " + outcome.Error}, nil
	}

	if result.Email == "" && result.LinkedInURL == "" {
		return Result{Lead: lead, Warning: "enrichment returned no contact details"}, nil
	}

	lead.EnrichedEmail = result.Email
	lead.EnrichedLinkedInURL = result.LinkedInURL
	if result.FirstName != "" {
		lead.Snapshot.FirstName = result.FirstName
	}
	if result.LastName != "" {
		lead.Snapshot.LastName = result.LastName
	}
	now := time.Now()
	lead.EnrichedAt = &now

	if err := c.leads.Update(ctx, lead); err != nil {
		return Result{}, fmt.Errorf("persist live enrichment: %w", err)
	}

	return Result{Lead: lead}, nil
}
