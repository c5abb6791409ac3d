// Package quota implements spec.md §4.2's Quota Gate (C2): a pure
// aggregation over the activity ledger (C1) and the tenant's active
// provider accounts, with no state of its own. Grounded on the
// aggregation style of internal/infrastructure/storage/activity_repository.go's
// CountByTenantAndStatus query, which this package calls directly rather
// than re-deriving SQL.
package quota

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// Scope is the quota window a check is evaluated over.
type Scope string

const (
	ScopeDaily  Scope = "daily"
	ScopeWeekly Scope = "weekly"
)

const linkedInProvider = "linkedin"

// linkedInConnectionStatuses are the ledger statuses that count against
// the linkedin_connect quota: an attempt counts the moment it is sent,
// whether or not it has since been accepted.
var linkedInConnectionStatuses = []models.ActivityStatus{
	models.ActivitySent,
	models.ActivityDelivered,
	models.ActivityConnected,
}

// Result is the outcome of a quota check.
type Result struct {
	Allowed   bool
	Remaining int
}

// Gate checks tenant-level linkedin_connect quota.
type Gate struct {
	accounts repository.ProviderAccountRepository
	ledger   ledgerCounter
	tenants  repository.TenantRepository
	logger   *logger.Logger
}

// ledgerCounter is the subset of *ledger.Ledger the gate depends on, kept
// as a narrow interface so tests don't need the full ledger package.
type ledgerCounter interface {
	CountByTenantAndStatus(ctx context.Context, tenantID uuid.UUID, statuses []models.ActivityStatus, stepType models.StepType, since, until time.Time) (int, error)
}

// New creates a Gate.
func New(accounts repository.ProviderAccountRepository, ledger ledgerCounter, tenants repository.TenantRepository, l *logger.Logger) *Gate {
	return &Gate{accounts: accounts, ledger: ledger, tenants: tenants, logger: l}
}

// Check evaluates whether tenant may send another linkedin_connect within
// scope, per spec.md §4.2.
func (g *Gate) Check(ctx context.Context, tenantID uuid.UUID, scope Scope) (Result, error) {
	capSum, err := g.accounts.SumDailyCap(ctx, tenantID, linkedInProvider)
	if err != nil {
		g.logger.ErrorContext(ctx, "quota gate: capacity query failed, failing open",
			"tenant_id", tenantID, "scope", scope, "error", err)
		return Result{Allowed: true, Remaining: 0}, nil
	}

	if capSum <= 0 {
		return Result{Allowed: false, Remaining: 0}, nil
	}

	since, until := g.window(ctx, tenantID, scope)
	count, err := g.ledger.CountByTenantAndStatus(ctx, tenantID, linkedInConnectionStatuses, models.StepLinkedInConnect, since, until)
	if err != nil {
		g.logger.ErrorContext(ctx, "quota gate: ledger count failed, failing open",
			"tenant_id", tenantID, "scope", scope, "error", err)
		return Result{Allowed: true, Remaining: 0}, nil
	}

	remaining := capSum - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: remaining > 0, Remaining: remaining}, nil
}

// CheckBoth evaluates both daily and weekly scopes; the connection is
// permitted only if both allow it, per spec.md §4.7.1.
func (g *Gate) CheckBoth(ctx context.Context, tenantID uuid.UUID) (daily, weekly Result, err error) {
	daily, err = g.Check(ctx, tenantID, ScopeDaily)
	if err != nil {
		return Result{}, Result{}, err
	}
	weekly, err = g.Check(ctx, tenantID, ScopeWeekly)
	if err != nil {
		return Result{}, Result{}, err
	}
	return daily, weekly, nil
}

// window computes [since, until) for scope, anchored to the tenant's
// configured timezone for the daily calendar-day boundary.
func (g *Gate) window(ctx context.Context, tenantID uuid.UUID, scope Scope) (time.Time, time.Time) {
	now := time.Now().UTC()

	if scope == ScopeWeekly {
		return now.Add(-7 * 24 * time.Hour), now
	}

	loc := time.UTC
	if settings, err := g.tenants.GetSettings(ctx, tenantID); err == nil && settings != nil {
		loc = settings.Location()
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return dayStart.UTC(), now
}
