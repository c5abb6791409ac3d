package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreachctl/internal/application/executor"
	"github.com/smilemakc/outreachctl/internal/application/ledger"
	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

type fakeStepRepo struct {
	steps []*models.Step
}

func (f *fakeStepRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*models.Step, error) {
	return f.steps, nil
}
func (f *fakeStepRepo) ReplaceAll(ctx context.Context, campaignID uuid.UUID, steps []*models.Step) error {
	f.steps = steps
	return nil
}

type fakeLeadRepo struct {
	updated *models.CampaignLead
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
	return nil, nil
}
func (f *fakeLeadRepo) FindEnrichedByIdentity(ctx context.Context, email, name, company string) (*models.CampaignLead, error) {
	return nil, nil
}

type fakeActivityRepo struct {
	recorded []*models.Activity
}

func (f *fakeActivityRepo) Record(ctx context.Context, a *models.Activity) (uuid.UUID, error) {
	a.ID = uuid.New()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	f.recorded = append(f.recorded, a)
	return a.ID, nil
}
func (f *fakeActivityRepo) LatestSuccess(ctx context.Context, leadID, stepID uuid.UUID) (*models.Activity, error) {
	var latest *models.Activity
	for _, a := range f.recorded {
		if a.CampaignLeadID == leadID && a.StepID == stepID && a.Status.IsTerminalSuccess() {
			latest = a
		}
	}
	return latest, nil
}
func (f *fakeActivityRepo) LatestSuccessForLead(ctx context.Context, leadID uuid.UUID) (*models.Activity, error) {
	var latest *models.Activity
	for _, a := range f.recorded {
		if a.CampaignLeadID == leadID && a.Status.IsTerminalSuccess() {
			if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
				latest = a
			}
		}
	}
	return latest, nil
}
func (f *fakeActivityRepo) ListForLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error) {
	var out []*models.Activity
	for _, a := range f.recorded {
		if a.CampaignLeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeActivityRepo) CountByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, statuses []models.ActivityStatus, stepType models.StepType, since, until time.Time) (int, error) {
	return 0, nil
}
func (f *fakeActivityRepo) CountForStep(ctx context.Context, campaignID, stepID uuid.UUID, status models.ActivityStatus) (int, error) {
	return 0, nil
}
func (f *fakeActivityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]*models.Activity, int, error) {
	return f.recorded, len(f.recorded), nil
}
func (f *fakeActivityRepo) PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error {
	return nil
}
func (f *fakeActivityRepo) UpdateResult(ctx context.Context, id uuid.UUID, status models.ActivityStatus, content, errorMessage string, metadata map[string]any) error {
	for _, a := range f.recorded {
		if a.ID == id {
			a.Status = status
			a.MessageContent = content
			a.ErrorMessage = errorMessage
			if metadata != nil {
				a.Metadata = metadata
			}
			return nil
		}
	}
	return nil
}
func (f *fakeActivityRepo) StatsByCampaign(ctx context.Context, campaignID uuid.UUID) (map[models.ActivityStatus]int, error) {
	return nil, nil
}

type fakeExecutor struct {
	outcome executor.Outcome
	calls   []uuid.UUID
}

func (f *fakeExecutor) Execute(ctx context.Context, campaignID uuid.UUID, step *models.Step, lead *models.CampaignLead, account *models.ProviderAccount) executor.Outcome {
	f.calls = append(f.calls, step.ID)
	return f.outcome
}

func testLogger() *logger.Logger {
	return logger.New(config.LoggingConfig{Level: "error", Format: "text"})
}

func TestAdvance_CompletesLeadPastLastStep(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	activityRepo := &fakeActivityRepo{}
	step := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepEmailSend}
	activityRepo.recorded = append(activityRepo.recorded, &models.Activity{
		CampaignLeadID: lead.ID, StepID: step.ID, Status: models.ActivityDelivered, CreatedAt: time.Now(),
	})
	leadRepo := &fakeLeadRepo{}
	driver := New(&fakeStepRepo{steps: []*models.Step{step}}, leadRepo, ledger.New(activityRepo, testLogger()), &fakeExecutor{}, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LeadCompleted, result.NewStatus)
	assert.Equal(t, models.LeadCompleted, leadRepo.updated.Status)
}

func TestAdvance_SkipsStepWithExistingTerminalSuccess(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	stepA := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepEmailSend}
	stepB := &models.Step{ID: uuid.New(), Order: 1, Type: models.StepEmailSend, Config: models.StepConfig{Subject: "s", Body: "b"}}
	activityRepo := &fakeActivityRepo{recorded: []*models.Activity{
		{CampaignLeadID: lead.ID, StepID: stepB.ID, Status: models.ActivityDelivered, CreatedAt: time.Now()},
	}}
	exec := &fakeExecutor{outcome: executor.Outcome{OK: true}}
	driver := New(&fakeStepRepo{steps: []*models.Step{stepA, stepB}}, &fakeLeadRepo{}, ledger.New(activityRepo, testLogger()), exec, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LeadCompleted, result.NewStatus)
	assert.Empty(t, exec.calls)
}

func TestAdvance_DelayWaitsUntilGateTime(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	stepA := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepEmailSend}
	delayStep := &models.Step{ID: uuid.New(), Order: 1, Type: models.StepDelay, Config: models.StepConfig{DelayHours: 1}}
	activityRepo := &fakeActivityRepo{recorded: []*models.Activity{
		{CampaignLeadID: lead.ID, StepID: stepA.ID, Status: models.ActivityDelivered, CreatedAt: time.Now()},
	}}
	driver := New(&fakeStepRepo{steps: []*models.Step{stepA, delayStep}}, &fakeLeadRepo{}, ledger.New(activityRepo, testLogger()), &fakeExecutor{}, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.True(t, result.Waiting)
	assert.Equal(t, delayStep.ID, result.StepID)
}

func TestAdvance_DelayPassesGateRecursesToNextStep(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	stepA := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepEmailSend}
	delayStep := &models.Step{ID: uuid.New(), Order: 1, Type: models.StepDelay, Config: models.StepConfig{DelayMinutes: 1}}
	stepC := &models.Step{ID: uuid.New(), Order: 2, Type: models.StepEmailSend, Config: models.StepConfig{Subject: "s", Body: "b"}}
	activityRepo := &fakeActivityRepo{recorded: []*models.Activity{
		{CampaignLeadID: lead.ID, StepID: stepA.ID, Status: models.ActivityDelivered, CreatedAt: time.Now().Add(-2 * time.Hour)},
	}}
	exec := &fakeExecutor{outcome: executor.Outcome{OK: true}}
	driver := New(&fakeStepRepo{steps: []*models.Step{stepA, delayStep, stepC}}, &fakeLeadRepo{}, ledger.New(activityRepo, testLogger()), exec, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.True(t, result.Dispatched)
	assert.Equal(t, stepC.ID, result.StepID)
}

func TestAdvance_ConditionFalseStopsLead(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	conditionStep := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepCondition, Config: models.StepConfig{ConditionType: "replied"}}
	leadRepo := &fakeLeadRepo{}
	driver := New(&fakeStepRepo{steps: []*models.Step{conditionStep}}, leadRepo, ledger.New(&fakeActivityRepo{}, testLogger()), &fakeExecutor{}, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStopped, result.NewStatus)
	assert.Equal(t, models.LeadStopped, leadRepo.updated.Status)
}

func TestAdvance_ConditionTrueAdvances(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	conditionStep := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepCondition, Config: models.StepConfig{ConditionType: "replied"}}
	activityRepo := &fakeActivityRepo{recorded: []*models.Activity{
		{CampaignLeadID: lead.ID, StepID: uuid.New(), Status: models.ActivityReplied, CreatedAt: time.Now()},
	}}
	driver := New(&fakeStepRepo{steps: []*models.Step{conditionStep}}, &fakeLeadRepo{}, ledger.New(activityRepo, testLogger()), &fakeExecutor{}, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LeadCompleted, result.NewStatus)
}

func TestAdvance_InvalidStepStopsLead(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	invalidStep := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepEmailSend}
	leadRepo := &fakeLeadRepo{}
	activityRepo := &fakeActivityRepo{}
	driver := New(&fakeStepRepo{steps: []*models.Step{invalidStep}}, leadRepo, ledger.New(activityRepo, testLogger()), &fakeExecutor{}, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStopped, result.NewStatus)
	require.Len(t, activityRepo.recorded, 1)
	assert.Equal(t, models.ActivityError, activityRepo.recorded[0].Status)
}

func TestAdvance_TerminalDispatchOutcomeStopsLead(t *testing.T) {
	for _, tc := range []struct {
		name    string
		outcome executor.Outcome
	}{
		{"quota", executor.Outcome{OK: false, Error: "quota"}},
		{"rate_limit_exhausted", executor.Outcome{OK: false, Reason: "rate_limit", Error: "weekly or daily invite limit reached across all accounts"}},
		{"no_valid_accounts", executor.Outcome{OK: false, Reason: "credentials", Error: "no valid accounts available; reconnect required"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			campaignID := uuid.New()
			lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
			step := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepLinkedInConnect}
			leadRepo := &fakeLeadRepo{}
			exec := &fakeExecutor{outcome: tc.outcome}
			driver := New(&fakeStepRepo{steps: []*models.Step{step}}, leadRepo, ledger.New(&fakeActivityRepo{}, testLogger()), exec, testLogger())

			result, err := driver.Advance(context.Background(), campaignID, lead, nil)
			require.NoError(t, err)
			assert.Equal(t, models.LeadStopped, result.NewStatus)
			assert.True(t, result.Dispatched)
			assert.Equal(t, step.ID, result.StepID)
			assert.Equal(t, models.LeadStopped, leadRepo.updated.Status)
		})
	}
}

func TestAdvance_TransientDispatchOutcomeLeavesLeadActive(t *testing.T) {
	campaignID := uuid.New()
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadActive}
	step := &models.Step{ID: uuid.New(), Order: 0, Type: models.StepLinkedInConnect}
	leadRepo := &fakeLeadRepo{}
	exec := &fakeExecutor{outcome: executor.Outcome{OK: false, Reason: "failure", Error: "unable to send connection request on any account"}}
	driver := New(&fakeStepRepo{steps: []*models.Step{step}}, leadRepo, ledger.New(&fakeActivityRepo{}, testLogger()), exec, testLogger())

	result, err := driver.Advance(context.Background(), campaignID, lead, nil)
	require.NoError(t, err)
	assert.Empty(t, result.NewStatus)
	assert.True(t, result.Dispatched)
	assert.Nil(t, leadRepo.updated)
}

func TestAdvance_InactiveLeadIsNoOp(t *testing.T) {
	lead := &models.CampaignLead{ID: uuid.New(), Status: models.LeadCompleted}
	driver := New(&fakeStepRepo{}, &fakeLeadRepo{}, ledger.New(&fakeActivityRepo{}, testLogger()), &fakeExecutor{}, testLogger())

	result, err := driver.Advance(context.Background(), uuid.New(), lead, nil)
	require.NoError(t, err)
	assert.Equal(t, AdvanceResult{}, result)
}
