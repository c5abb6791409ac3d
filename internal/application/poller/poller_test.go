package poller

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreachctl/internal/application/eventbus"
	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

type fakeTenantRepo struct {
	tenantIDs []uuid.UUID
}

func (f *fakeTenantRepo) GetSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error) {
	return nil, nil
}
func (f *fakeTenantRepo) UpsertSettings(ctx context.Context, s *models.TenantSettings) error {
	return nil
}
func (f *fakeTenantRepo) ListTenantsWithActiveAccounts(ctx context.Context, provider string) ([]uuid.UUID, error) {
	return f.tenantIDs, nil
}

type fakeInvitationRepo struct {
	pending  []*models.InvitationTrack
	upserted []*models.InvitationTrack
}

func (f *fakeInvitationRepo) Upsert(ctx context.Context, t *models.InvitationTrack) error {
	f.upserted = append(f.upserted, t)
	return nil
}
func (f *fakeInvitationRepo) GetByLead(ctx context.Context, leadID uuid.UUID) (*models.InvitationTrack, error) {
	return nil, nil
}
func (f *fakeInvitationRepo) ListPendingByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.InvitationTrack, error) {
	return f.pending, nil
}

type fakeActivityPromoter struct {
	promotions []string
}

func (f *fakeActivityPromoter) PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error {
	f.promotions = append(f.promotions, string(toStatus))
	return nil
}

type fakeAccountRepo struct {
	accounts []*models.ProviderAccount
}

func (f *fakeAccountRepo) ListActiveByTenantAndProvider(ctx context.Context, tenantID uuid.UUID, provider string) ([]*models.ProviderAccount, error) {
	return f.accounts, nil
}
func (f *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ProviderAccount, error) {
	return nil, nil
}
func (f *fakeAccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProviderAccountStatus, needsReconnect bool) error {
	return nil
}
func (f *fakeAccountRepo) SumDailyCap(ctx context.Context, tenantID uuid.UUID, provider string) (int, error) {
	return 0, nil
}
func (f *fakeAccountRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*models.ProviderAccount, error) {
	return nil, nil
}

type fakeLinkedIn struct {
	invitations []any
}

func (f *fakeLinkedIn) Lookup(ctx context.Context, publicID string, account *models.ProviderAccount) (string, models.ProviderOutcome) {
	return "", models.ProviderOutcome{}
}
func (f *fakeLinkedIn) Invite(ctx context.Context, providerID string, account *models.ProviderAccount, message string) models.ProviderOutcome {
	return models.ProviderOutcome{}
}
func (f *fakeLinkedIn) SendMessage(ctx context.Context, providerID string, account *models.ProviderAccount, text string) models.ProviderOutcome {
	return models.ProviderOutcome{}
}
func (f *fakeLinkedIn) Follow(ctx context.Context, providerID string, account *models.ProviderAccount) models.ProviderOutcome {
	return models.ProviderOutcome{}
}
func (f *fakeLinkedIn) GetProfile(ctx context.Context, publicID string, account *models.ProviderAccount) models.ProviderOutcome {
	return models.ProviderOutcome{}
}
func (f *fakeLinkedIn) ListInvitations(ctx context.Context, account *models.ProviderAccount, filters map[string]any) models.ProviderOutcome {
	return models.ProviderOutcome{Success: true, Category: models.CategoryOK, Data: map[string]any{"invitations": f.invitations}}
}
func (f *fakeLinkedIn) GetAccountStatus(ctx context.Context, account *models.ProviderAccount) models.ProviderOutcome {
	return models.ProviderOutcome{}
}

func testLogger() *logger.Logger {
	return logger.New(config.LoggingConfig{Level: "error", Format: "text"})
}

func TestSweepAll_NoTenantsIsNoOp(t *testing.T) {
	p := New(&fakeTenantRepo{}, &fakeInvitationRepo{}, &fakeActivityPromoter{}, &fakeLinkedIn{}, &fakeAccountRepo{}, eventbus.New(), "0 8,13,18 * * *", testLogger())
	require.NoError(t, p.SweepAll(context.Background()))
}

func TestSweepAll_PromotesAcceptedInvitationToConnected(t *testing.T) {
	tenantID := uuid.New()
	leadID := uuid.New()
	track := &models.InvitationTrack{ID: uuid.New(), TenantID: tenantID, CampaignLeadID: leadID, ExternalInvitationID: "inv-1", LastSeenStatus: models.InvitationPending}

	tenants := &fakeTenantRepo{tenantIDs: []uuid.UUID{tenantID}}
	invitations := &fakeInvitationRepo{pending: []*models.InvitationTrack{track}}
	promoter := &fakeActivityPromoter{}
	accounts := &fakeAccountRepo{accounts: []*models.ProviderAccount{{ID: uuid.New(), TenantID: tenantID, Provider: "linkedin"}}}
	linkedin := &fakeLinkedIn{invitations: []any{map[string]any{"id": "inv-1", "status": "accepted"}}}

	p := New(tenants, invitations, promoter, linkedin, accounts, eventbus.New(), "0 8,13,18 * * *", testLogger())
	require.NoError(t, p.SweepAll(context.Background()))

	require.Len(t, invitations.upserted, 1)
	assert.Equal(t, models.InvitationAccepted, invitations.upserted[0].LastSeenStatus)
	require.Len(t, promoter.promotions, 1)
	assert.Equal(t, string(models.ActivityConnected), promoter.promotions[0])
}

func TestSweepAll_PromotesDeclinedInvitationToError(t *testing.T) {
	tenantID := uuid.New()
	leadID := uuid.New()
	track := &models.InvitationTrack{ID: uuid.New(), TenantID: tenantID, CampaignLeadID: leadID, ExternalInvitationID: "inv-2", LastSeenStatus: models.InvitationPending}

	tenants := &fakeTenantRepo{tenantIDs: []uuid.UUID{tenantID}}
	invitations := &fakeInvitationRepo{pending: []*models.InvitationTrack{track}}
	promoter := &fakeActivityPromoter{}
	accounts := &fakeAccountRepo{accounts: []*models.ProviderAccount{{ID: uuid.New(), TenantID: tenantID, Provider: "linkedin"}}}
	linkedin := &fakeLinkedIn{invitations: []any{map[string]any{"id": "inv-2", "status": "declined"}}}

	p := New(tenants, invitations, promoter, linkedin, accounts, eventbus.New(), "0 8,13,18 * * *", testLogger())
	require.NoError(t, p.SweepAll(context.Background()))

	require.Len(t, promoter.promotions, 1)
	assert.Equal(t, string(models.ActivityError), promoter.promotions[0])
}

func TestSweepAll_UnchangedStatusSkipsReconciliation(t *testing.T) {
	tenantID := uuid.New()
	track := &models.InvitationTrack{ID: uuid.New(), TenantID: tenantID, ExternalInvitationID: "inv-3", LastSeenStatus: models.InvitationPending}

	tenants := &fakeTenantRepo{tenantIDs: []uuid.UUID{tenantID}}
	invitations := &fakeInvitationRepo{pending: []*models.InvitationTrack{track}}
	promoter := &fakeActivityPromoter{}
	accounts := &fakeAccountRepo{accounts: []*models.ProviderAccount{{ID: uuid.New(), TenantID: tenantID, Provider: "linkedin"}}}
	linkedin := &fakeLinkedIn{invitations: []any{map[string]any{"id": "inv-3", "status": "pending"}}}

	p := New(tenants, invitations, promoter, linkedin, accounts, eventbus.New(), "0 8,13,18 * * *", testLogger())
	require.NoError(t, p.SweepAll(context.Background()))

	assert.Empty(t, invitations.upserted)
	assert.Empty(t, promoter.promotions)
}
