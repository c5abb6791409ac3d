package sourcer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

type fakeCampaignRepo struct {
	updated *models.Campaign
}

func (f *fakeCampaignRepo) Create(ctx context.Context, c *models.Campaign) error { return nil }
func (f *fakeCampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	f.updated = c
	return nil
}
func (f *fakeCampaignRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Campaign, error) {
	return nil, nil
}
func (f *fakeCampaignRepo) List(ctx context.Context, filter repository.CampaignFilter) ([]*models.Campaign, int, error) {
	return nil, 0, nil
}
func (f *fakeCampaignRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error { return nil }
func (f *fakeCampaignRepo) LockForDailyRun(ctx context.Context, campaignID uuid.UUID, fn func(ctx context.Context, c *models.Campaign) error) (bool, error) {
	return false, nil
}
func (f *fakeCampaignRepo) ListExecutionEligible(ctx context.Context) ([]*models.Campaign, error) {
	return nil, nil
}

type fakeLeadRepo struct {
	existing map[string]bool
	created  []*models.CampaignLead
}

func (f *fakeLeadRepo) Create(ctx context.Context, l *models.CampaignLead) error {
	f.created = append(f.created, l)
	return nil
}
func (f *fakeLeadRepo) BulkCreate(ctx context.Context, leads []*models.CampaignLead) (int, error) {
	return 0, nil
}
func (f *fakeLeadRepo) Update(ctx context.Context, l *models.CampaignLead) error { return nil }
func (f *fakeLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CampaignLead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) ExistsByExternalPersonID(ctx context.Context, campaignID uuid.UUID, externalPersonID string) (bool, error) {
	return f.existing[externalPersonID], nil
}
func (f *fakeLeadRepo) ListActiveByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.CampaignLead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) List(ctx context.Context, filter repository.CampaignLeadFilter) ([]*models.CampaignLead, int, error) {
	return nil, 0, nil
}
func (f *fakeLeadRepo) FindEnrichedByExternalPersonID(ctx context.Context, externalPersonID string) (*models.CampaignLead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) FindEnrichedByIdentity(ctx context.Context, email, name, company string) (*models.CampaignLead, error) {
	return nil, nil
}

type fakeSourceClient struct {
	pages [][]models.LeadSnapshot
}

func (f *fakeSourceClient) Search(ctx context.Context, filters *models.LeadGenerationFilters, page, perPage int) ([]models.LeadSnapshot, models.ProviderOutcome) {
	idx := page - 1
	if idx < 0 || idx >= len(f.pages) {
		return nil, models.ProviderOutcome{Success: true, Category: models.CategoryOK}
	}
	return f.pages[idx], models.ProviderOutcome{Success: true, Category: models.CategoryOK}
}

type fakeLedger struct {
	recorded []*models.Activity
}

func (f *fakeLedger) Record(ctx context.Context, a *models.Activity) (uuid.UUID, error) {
	a.ID = uuid.New()
	f.recorded = append(f.recorded, a)
	return a.ID, nil
}

func testLogger() *logger.Logger {
	return logger.New(config.LoggingConfig{Level: "error", Format: "text"})
}

func TestSource_AlreadyRanTodaySkips(t *testing.T) {
	today := models.Date{Year: 2026, Month: 7, Day: 29}
	campaign := &models.Campaign{ID: uuid.New(), Config: models.CampaignConfig{LastLeadGenDate: &today}}
	step := &models.Step{ID: uuid.New()}
	s := New(&fakeCampaignRepo{}, &fakeLeadRepo{}, &fakeSourceClient{}, &fakeLedger{}, testLogger())

	result, err := s.Source(context.Background(), campaign, step, today)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "already_ran_today", result.Reason)
}

func TestSource_FetchesAndSavesNewLeads(t *testing.T) {
	today := models.Date{Year: 2026, Month: 7, Day: 29}
	campaign := &models.Campaign{ID: uuid.New(), Config: models.CampaignConfig{LeadsPerDay: 2}}
	step := &models.Step{ID: uuid.New()}
	leadRepo := &fakeLeadRepo{existing: map[string]bool{}}
	campaignRepo := &fakeCampaignRepo{}
	ledger := &fakeLedger{}
	source := &fakeSourceClient{pages: [][]models.LeadSnapshot{
		{{FirstName: "Ann", LastName: "A", Company: "Acme"}, {FirstName: "Bob", LastName: "B", Company: "Acme"}},
	}}
	s := New(campaignRepo, leadRepo, source, ledger, testLogger())

	result, err := s.Source(context.Background(), campaign, step, today)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Saved)
	assert.Len(t, leadRepo.created, 2)
	assert.Equal(t, 2, campaignRepo.updated.Config.LeadGenOffset)
	assert.True(t, campaignRepo.updated.Config.LastLeadGenDate.Equal(today))
	require.Len(t, ledger.recorded, 1)
	assert.Equal(t, models.ActivitySent, ledger.recorded[0].Status)
}

func TestSource_SkipsAlreadyExistingLeads(t *testing.T) {
	today := models.Date{Year: 2026, Month: 7, Day: 29}
	campaign := &models.Campaign{ID: uuid.New(), Config: models.CampaignConfig{LeadsPerDay: 2}}
	step := &models.Step{ID: uuid.New()}
	leadRepo := &fakeLeadRepo{existing: map[string]bool{"Ann|A|Acme": true}}
	source := &fakeSourceClient{pages: [][]models.LeadSnapshot{
		{{FirstName: "Ann", LastName: "A", Company: "Acme"}, {FirstName: "Bob", LastName: "B", Company: "Acme"}},
	}}
	s := New(&fakeCampaignRepo{}, leadRepo, source, &fakeLedger{}, testLogger())

	result, err := s.Source(context.Background(), campaign, step, today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Saved)
}

func TestSource_PrecedenceFallsBackToStepLimitThenDefault(t *testing.T) {
	today := models.Date{Year: 2026, Month: 7, Day: 29}
	campaign := &models.Campaign{ID: uuid.New()}
	step := &models.Step{ID: uuid.New(), Config: models.StepConfig{LeadGenerationLimit: 1}}
	leadRepo := &fakeLeadRepo{existing: map[string]bool{}}
	source := &fakeSourceClient{pages: [][]models.LeadSnapshot{
		{{FirstName: "Ann", LastName: "A", Company: "Acme"}, {FirstName: "Bob", LastName: "B", Company: "Acme"}},
	}}
	s := New(&fakeCampaignRepo{}, leadRepo, source, &fakeLedger{}, testLogger())

	result, err := s.Source(context.Background(), campaign, step, today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, 1, result.Saved)

	s = New(&fakeCampaignRepo{}, &fakeLeadRepo{existing: map[string]bool{}}, source, &fakeLedger{}, testLogger())
	result, err = s.Source(context.Background(), &models.Campaign{ID: uuid.New()}, &models.Step{ID: uuid.New()}, today)
	require.NoError(t, err)
	assert.Equal(t, defaultLeadsPerDay, result.Requested)
	assert.Equal(t, 2, result.Saved)
}
