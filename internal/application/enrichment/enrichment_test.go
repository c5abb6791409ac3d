package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/providers"
	"github.com/smilemakc/outreachctl/pkg/models"
)

type fakeLeadRepo struct {
	crossTenantByExternalID *models.CampaignLead
	crossTenantByIdentity   *models.CampaignLead
	updated                 *models.CampaignLead
}

func (f *fakeLeadRepo) Create(ctx context.Context, l *models.CampaignLead) error { return nil }
func (f *fakeLeadRepo) BulkCreate(ctx context.Context, leads []*models.CampaignLead) (int, error) {
	return 0, nil
}
func (f *fakeLeadRepo) Update(ctx context.Context, l *models.CampaignLead) error {
	f.updated = l
	return nil
}
func (f *fakeLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CampaignLead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) ExistsByExternalPersonID(ctx context.Context, campaignID uuid.UUID, externalPersonID string) (bool, error) {
	return false, nil
}
func (f *fakeLeadRepo) ListActiveByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.CampaignLead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) List(ctx context.Context, filter repository.CampaignLeadFilter) ([]*models.CampaignLead, int, error) {
	return nil, 0, nil
}
func (f *fakeLeadRepo) FindEnrichedByExternalPersonID(ctx context.Context, externalPersonID string) (*models.CampaignLead, error) {
	return f.crossTenantByExternalID, nil
}
func (f *fakeLeadRepo) FindEnrichedByIdentity(ctx context.Context, email, name, company string) (*models.CampaignLead, error) {
	return f.crossTenantByIdentity, nil
}

type fakeEnrichClient struct {
	result  providers.EnrichResult
	outcome models.ProviderOutcome
}

func (f *fakeEnrichClient) EnrichPerson(ctx context.Context, externalID string, context map[string]any) (providers.EnrichResult, models.ProviderOutcome) {
	return f.result, f.outcome
}

func testLogger() *logger.Logger {
	return logger.New(config.LoggingConfig{Level: "error", Format: "text"})
}

func TestCache_Enrich_AlreadyEnrichedReturnsUnchanged(t *testing.T) {
	now := time.Now()
	lead := &models.CampaignLead{ID: uuid.New(), EnrichedAt: &now, EnrichedEmail: "a@b.com"}
	c := New(&fakeLeadRepo{}, &fakeEnrichClient{}, testLogger())

	result, err := c.Enrich(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", result.Lead.EnrichedEmail)
	assert.False(t, result.CrossTenantHit)
}

func TestCache_Enrich_CrossTenantHit(t *testing.T) {
	lead := &models.CampaignLead{ID: uuid.New(), ExternalPersonID: "ext-1"}
	hit := &models.CampaignLead{EnrichedEmail: "x@y.com", EnrichedLinkedInURL: "https://linkedin.com/in/x"}
	repo := &fakeLeadRepo{crossTenantByExternalID: hit}
	c := New(repo, &fakeEnrichClient{}, testLogger())

	result, err := c.Enrich(context.Background(), lead)
	require.NoError(t, err)
	assert.True(t, result.CrossTenantHit)
	assert.Equal(t, "x@y.com", result.Lead.EnrichedEmail)
	assert.NotNil(t, result.Lead.EnrichedAt)
	assert.Same(t, lead, repo.updated)
}

func TestCache_Enrich_LiveProviderCallOnNoHit(t *testing.T) {
	lead := &models.CampaignLead{ID: uuid.New(), ExternalPersonID: "ext-2"}
	client := &fakeEnrichClient{
		result:  providers.EnrichResult{Email: "live@x.com", LinkedInURL: "https://linkedin.com/in/live"},
		outcome: models.ProviderOutcome{Success: true, Category: models.CategoryOK},
	}
	c := New(&fakeLeadRepo{}, client, testLogger())

	result, err := c.Enrich(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, "live@x.com", result.Lead.EnrichedEmail)
	assert.NotNil(t, result.Lead.EnrichedAt)
}

func TestCache_Enrich_ProviderFailureReturnsWarning(t *testing.T) {
	lead := &models.CampaignLead{ID: uuid.New(), ExternalPersonID: "ext-3"}
	client := &fakeEnrichClient{outcome: models.ProviderOutcome{Success: false, Error: "timeout", Category: models.CategoryTransient}}
	c := New(&fakeLeadRepo{}, client, testLogger())

	result, err := c.Enrich(context.Background(), lead)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warning)
	assert.Nil(t, result.Lead.EnrichedAt)
}
