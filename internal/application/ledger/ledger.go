// Package ledger implements spec.md §4.1's activity ledger: the single
// append-only record of every outbound action taken against a lead, and
// the aggregate queries C2-C11 run against it. The storage-level upsert
// semantics (ON CONFLICT against the terminal-success partial index) live
// in internal/infrastructure/storage/activity_repository.go; this package
// is the thin service boundary the rest of the application calls through,
// grounded on the transactional-insert style of
// internal/infrastructure/storage/execution_repository.go.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// Ledger records and queries outbound activity.
type Ledger struct {
	repo   repository.ActivityRepository
	logger *logger.Logger
}

// New creates a Ledger backed by repo.
func New(repo repository.ActivityRepository, l *logger.Logger) *Ledger {
	return &Ledger{repo: repo, logger: l}
}

// Record writes a new activity row. Failure to write surfaces to the
// caller rather than being silently dropped, per spec.md §4.1.
func (l *Ledger) Record(ctx context.Context, a *models.Activity) (uuid.UUID, error) {
	id, err := l.repo.Record(ctx, a)
	if err != nil {
		l.logger.ErrorContext(ctx, "activity record failed",
			"campaign_lead_id", a.CampaignLeadID,
			"step_id", a.StepID,
			"action_type", a.ActionType,
			"status", a.Status,
			"error", err,
		)
		return uuid.Nil, fmt.Errorf("record activity: %w", err)
	}
	return id, nil
}

// UpdateResult moves the activity row id from "sent" to its dispatch
// outcome in place, per spec.md §4.7 step 4. C7 calls this instead of
// Record for a step's terminal status so a successful dispatch leaves
// exactly one row behind, not a "sent" row plus a second "delivered" row.
func (l *Ledger) UpdateResult(ctx context.Context, id uuid.UUID, status models.ActivityStatus, content, errMsg string, metadata map[string]any) error {
	if err := l.repo.UpdateResult(ctx, id, status, content, errMsg, metadata); err != nil {
		l.logger.ErrorContext(ctx, "activity update failed", "activity_id", id, "status", status, "error", err)
		return fmt.Errorf("update activity result: %w", err)
	}
	return nil
}

// LatestSuccess returns the most recent terminal-success activity for
// (leadID, stepID), or nil if none exists.
func (l *Ledger) LatestSuccess(ctx context.Context, leadID, stepID uuid.UUID) (*models.Activity, error) {
	a, err := l.repo.LatestSuccess(ctx, leadID, stepID)
	if err != nil {
		return nil, fmt.Errorf("latest success: %w", err)
	}
	return a, nil
}

// LatestSuccessForLead returns the most recent terminal-success activity
// across all steps for leadID, used by C8 to determine the lead's
// furthest completed step.
func (l *Ledger) LatestSuccessForLead(ctx context.Context, leadID uuid.UUID) (*models.Activity, error) {
	a, err := l.repo.LatestSuccessForLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("latest success for lead: %w", err)
	}
	return a, nil
}

// ListForLead returns every activity recorded against leadID, oldest
// first.
func (l *Ledger) ListForLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error) {
	activities, err := l.repo.ListForLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("list for lead: %w", err)
	}
	return activities, nil
}

// CountByTenantAndStatus counts activities of stepType in any of statuses,
// created within [since, until), for C2's quota window checks.
func (l *Ledger) CountByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, statuses []models.ActivityStatus, stepType models.StepType, since, until time.Time) (int, error) {
	n, err := l.repo.CountByTenantAndStatus(ctx, tenantID, statuses, stepType, since, until)
	if err != nil {
		return 0, fmt.Errorf("count by tenant and status: %w", err)
	}
	return n, nil
}

// CountForStep counts activities of status for (campaignID, stepID). C9
// does not call it; the sourcer caps each run at leads_per_day itself.
func (l *Ledger) CountForStep(ctx context.Context, campaignID, stepID uuid.UUID, status models.ActivityStatus) (int, error) {
	n, err := l.repo.CountForStep(ctx, campaignID, stepID, status)
	if err != nil {
		return 0, fmt.Errorf("count for step: %w", err)
	}
	return n, nil
}

// List returns a paginated activity listing for the SPEC_FULL §7 activity
// feed endpoint.
func (l *Ledger) List(ctx context.Context, filter repository.ActivityFilter) ([]*models.Activity, int, error) {
	activities, total, err := l.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}
	return activities, total, nil
}

// PromoteStatus advances the most recent (leadID, stepType) row from
// fromStatus to toStatus, used by C11 when a pending invitation is
// observed accepted.
func (l *Ledger) PromoteStatus(ctx context.Context, leadID uuid.UUID, stepType models.StepType, fromStatus, toStatus models.ActivityStatus, errorMessage string) error {
	if err := l.repo.PromoteStatus(ctx, leadID, stepType, fromStatus, toStatus, errorMessage); err != nil {
		return fmt.Errorf("promote status: %w", err)
	}
	return nil
}

// StatsByCampaign aggregates activity counts by status for a campaign's
// stats endpoint and its eventbus push.
func (l *Ledger) StatsByCampaign(ctx context.Context, campaignID uuid.UUID) (map[models.ActivityStatus]int, error) {
	stats, err := l.repo.StatsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("stats by campaign: %w", err)
	}
	return stats, nil
}
