package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

type fakeActivityRepo struct {
	recordErr      error
	recordID       uuid.UUID
	latestSuccess  *models.Activity
	latestErr      error
	countByStatus  int
	countByErr     error
	countForStep   int
	countForErr    error
	promoteErr     error
	promoteCalls   int
	updateErr      error
	updateCalls    int
	stats          map[models.ActivityStatus]int
	statsErr       error
	listForLead    []*models.Activity
	listForLeadErr error
}

func (f *fakeActivityRepo) Record(ctx context.Context, a *models.Activity) (uuid.UUID, error) {
	if f.recordErr != nil {
		return uuid.Nil, f.recordErr
	}
	return f.recordID, nil
}

func (f *fakeActivityRepo) LatestSuccess(ctx context.Context, leadID, stepID uuid.UUID) (*models.Activity, error) {
	return f.latestSuccess, f.latestErr
}

func (f *fakeActivityRepo) LatestSuccessForLead(ctx context.Context, leadID uuid.UUID) (*models.Activity, error) {
	return f.latestSuccess, f.latestErr
}

func (f *fakeActivityRepo) ListForLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error) {
	return f.listForLead, f.listForLeadErr
}

func (f *fakeActivityRepo) CountByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, statuses []models.ActivityStatus, stepType models.StepType, since, until time.Time) (int, error) {
	return f.countByStatus, f.countByErr
}

func (f *fakeActivityRepo) CountForStep(ctx context.Context, campaignID, stepID uuid.UUID, status models.ActivityStatus) (int, error) {
	return f.countForStep, f.countForErr
}

func (f *fakeActivityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]*models.Activity, int, error) {
	return nil, 0, nil
}

func (f *fakeActivityRepo) PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error {
	f.promoteCalls++
	return f.promoteErr
}

func (f *fakeActivityRepo) UpdateResult(ctx context.Context, id uuid.UUID, status models.ActivityStatus, content, errorMessage string, metadata map[string]any) error {
	f.updateCalls++
	return f.updateErr
}

func (f *fakeActivityRepo) StatsByCampaign(ctx context.Context, campaignID uuid.UUID) (map[models.ActivityStatus]int, error) {
	return f.stats, f.statsErr
}

func testLogger() *logger.Logger {
	return logger.New(config.LoggingConfig{Level: "error", Format: "text"})
}

func TestLedger_Record_Success(t *testing.T) {
	want := uuid.New()
	repo := &fakeActivityRepo{recordID: want}
	l := New(repo, testLogger())

	got, err := l.Record(context.Background(), &models.Activity{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLedger_Record_PropagatesError(t *testing.T) {
	repo := &fakeActivityRepo{recordErr: errors.New("db down")}
	l := New(repo, testLogger())

	_, err := l.Record(context.Background(), &models.Activity{})
	assert.Error(t, err)
}

func TestLedger_LatestSuccess(t *testing.T) {
	want := &models.Activity{ID: uuid.New()}
	repo := &fakeActivityRepo{latestSuccess: want}
	l := New(repo, testLogger())

	got, err := l.LatestSuccess(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLedger_CountByTenantAndStatus(t *testing.T) {
	repo := &fakeActivityRepo{countByStatus: 7}
	l := New(repo, testLogger())

	n, err := l.CountByTenantAndStatus(context.Background(), uuid.New(), []models.ActivityStatus{models.ActivityDelivered}, models.StepLinkedInMessage, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestLedger_CountForStep(t *testing.T) {
	repo := &fakeActivityRepo{countForStep: 3}
	l := New(repo, testLogger())

	n, err := l.CountForStep(context.Background(), uuid.New(), uuid.New(), models.ActivityDelivered)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLedger_PromoteStatus(t *testing.T) {
	repo := &fakeActivityRepo{}
	l := New(repo, testLogger())

	err := l.PromoteStatus(context.Background(), uuid.New(), models.StepLinkedInConnect, models.ActivityDelivered, models.ActivityConnected, "")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.promoteCalls)
}

func TestLedger_UpdateResult(t *testing.T) {
	repo := &fakeActivityRepo{}
	l := New(repo, testLogger())

	err := l.UpdateResult(context.Background(), uuid.New(), models.ActivityDelivered, "hi", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestLedger_UpdateResult_PropagatesError(t *testing.T) {
	repo := &fakeActivityRepo{updateErr: errors.New("db down")}
	l := New(repo, testLogger())

	err := l.UpdateResult(context.Background(), uuid.New(), models.ActivityDelivered, "hi", "", nil)
	assert.Error(t, err)
}

func TestLedger_StatsByCampaign(t *testing.T) {
	want := map[models.ActivityStatus]int{models.ActivityDelivered: 2}
	repo := &fakeActivityRepo{stats: want}
	l := New(repo, testLogger())

	got, err := l.StatsByCampaign(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
