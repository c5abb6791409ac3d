package providers

import (
	"context"
	"time"

	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// EnrichmentClient resolves a person's contact details from a sparse
// reference, per spec.md §4.3/§4.5.
type EnrichmentClient interface {
	EnrichPerson(ctx context.Context, externalID string, context map[string]any) (EnrichResult, models.ProviderOutcome)
}

// EnrichResult is EnrichmentClient.EnrichPerson's typed success payload.
type EnrichResult struct {
	Email       string
	LinkedInURL string
	FirstName   string
	LastName    string
	CreditsUsed int
}

// LeadSourceClient searches for new leads matching a campaign's
// lead_generation filters, per spec.md §4.3/§4.9.
type LeadSourceClient interface {
	Search(ctx context.Context, filters *models.LeadGenerationFilters, page, perPage int) ([]models.LeadSnapshot, models.ProviderOutcome)
}

// apolloClient implements both EnrichmentClient and LeadSourceClient
// against the Apollo.io people-search/enrichment API.
type apolloClient struct {
	caller *httpCaller
}

// NewApolloClient creates a combined enrichment + lead-source client.
func NewApolloClient(cfg config.ApolloConfig) *apolloClient {
	return &apolloClient{caller: newHTTPCaller(cfg.BaseURL, cfg.APIKey, 20*time.Second)}
}

func (c *apolloClient) EnrichPerson(ctx context.Context, externalID string, context map[string]any) (EnrichResult, models.ProviderOutcome) {
	body := map[string]any{"id": externalID}
	for k, v := range context {
		body[k] = v
	}

	outcome := c.caller.do(ctx, "POST", "/v1/people/match", body)
	if !outcome.IsOK() {
		return EnrichResult{}, wrapErr(outcome, "enrich person")
	}

	person, _ := outcome.Data["person"].(map[string]any)
	result := EnrichResult{CreditsUsed: 1}
	if email, ok := person["email"].(string); ok {
		result.Email = email
	}
	if url, ok := person["linkedin_url"].(string); ok {
		result.LinkedInURL = url
	}
	if first, ok := person["first_name"].(string); ok {
		result.FirstName = first
	}
	if last, ok := person["last_name"].(string); ok {
		result.LastName = last
	}
	return result, outcome
}

func (c *apolloClient) Search(ctx context.Context, filters *models.LeadGenerationFilters, page, perPage int) ([]models.LeadSnapshot, models.ProviderOutcome) {
	body := map[string]any{
		"page":     page,
		"per_page": perPage,
	}
	if filters != nil {
		if len(filters.Roles) > 0 {
			body["person_titles"] = filters.Roles
		}
		if len(filters.Industries) > 0 {
			body["organization_industries"] = filters.Industries
		}
		if filters.Location != "" {
			body["person_locations"] = []string{filters.Location}
		}
	}

	outcome := c.caller.do(ctx, "POST", "/v1/mixed_people/search", body)
	if !outcome.IsOK() {
		return nil, wrapErr(outcome, "lead search")
	}

	rawPeople, _ := outcome.Data["people"].([]any)
	leads := make([]models.LeadSnapshot, 0, len(rawPeople))
	for _, raw := range rawPeople {
		person, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		leads = append(leads, models.LeadSnapshot{
			FirstName:   stringField(person, "first_name"),
			LastName:    stringField(person, "last_name"),
			Title:       stringField(person, "title"),
			Company:     stringField(person, "organization_name"),
			CompanyName: stringField(person, "organization_name"),
			Industry:    stringField(person, "industry"),
			Phone:       stringField(person, "phone"),
			Headline:    stringField(person, "headline"),
		})
	}
	return leads, outcome
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
