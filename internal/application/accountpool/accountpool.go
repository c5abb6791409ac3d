// Package accountpool implements spec.md §4.4's Account Pool (C4): picking
// a tenant's healthiest provider account, building a fallback order, and
// tracking per-account 401 retry attempts within a rolling window. The
// attempt-window tracker is grounded verbatim-in-spirit on
// internal/application/engine/condition_cache.go's container/list LRU,
// repurposed from caching compiled expr programs to caching
// (account_id) -> attempt-window state.
package accountpool

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/providers"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// VerifyStatus is the result of probing a provider account's session
// health (spec.md §4.4's verify()).
type VerifyStatus string

const (
	VerifyValid           VerifyStatus = "valid"
	VerifyNeedsCheckpoint VerifyStatus = "needs_checkpoint"
	VerifyNotFound        VerifyStatus = "not_found"
	VerifyTransient       VerifyStatus = "transient"
)

// UnauthorizedOutcome is what onUnauthorized decided to do about a 401.
type UnauthorizedOutcome string

const (
	OutcomeRetried                  UnauthorizedOutcome = "retried"
	OutcomeRequiresUserIntervention UnauthorizedOutcome = "requires_user_intervention"
	OutcomeMarkedInactive           UnauthorizedOutcome = "marked_inactive"
	OutcomeTransient                UnauthorizedOutcome = "transient"
	OutcomeAttemptsExhausted        UnauthorizedOutcome = "attempts_exhausted"
)

const attemptWindowCacheCapacity = 500

// attemptEntry tracks how many unauthorized-retry attempts an account has
// made within the current 5-minute window.
type attemptEntry struct {
	accountID   uuid.UUID
	count       int
	windowStart time.Time
}

// Pool picks and health-checks a tenant's LinkedIn accounts.
type Pool struct {
	accounts     repository.ProviderAccountRepository
	linkedin     providers.LinkedInClient
	maxAttempts  int
	windowLength time.Duration
	logger       *logger.Logger

	mu       sync.Mutex
	cache    map[uuid.UUID]*list.Element
	lruList  *list.List
}

// New creates a Pool. maxAttempts and windowLength correspond to
// spec.md §4.4's "cap 3" over a "5-minute window" (configurable via
// CampaignConfig.MaxReconnectAttempts/ReconnectAttemptWindow).
func New(accounts repository.ProviderAccountRepository, linkedin providers.LinkedInClient, maxAttempts int, windowLength time.Duration, l *logger.Logger) *Pool {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if windowLength <= 0 {
		windowLength = 5 * time.Minute
	}
	return &Pool{
		accounts:     accounts,
		linkedin:     linkedin,
		maxAttempts:  maxAttempts,
		windowLength: windowLength,
		logger:       l,
		cache:        make(map[uuid.UUID]*list.Element),
		lruList:      list.New(),
	}
}

// Pick returns the most recently created healthy account for
// (tenant, provider), or nil if none exist.
func (p *Pool) Pick(ctx context.Context, tenantID uuid.UUID, provider string) (*models.ProviderAccount, error) {
	accounts, err := p.accounts.ListActiveByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, fmt.Errorf("pick account: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// FallbackOrder returns primary followed by the tenant's other active
// accounts for provider, per spec.md §4.4.
func (p *Pool) FallbackOrder(ctx context.Context, tenantID uuid.UUID, provider string, primary *models.ProviderAccount) ([]*models.ProviderAccount, error) {
	accounts, err := p.accounts.ListActiveByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, fmt.Errorf("fallback order: %w", err)
	}

	ordered := make([]*models.ProviderAccount, 0, len(accounts))
	if primary != nil {
		ordered = append(ordered, primary)
	}
	for _, a := range accounts {
		if primary != nil && a.ID == primary.ID {
			continue
		}
		ordered = append(ordered, a)
	}
	return ordered, nil
}

// Verify probes account's provider session and classifies its health.
func (p *Pool) Verify(ctx context.Context, account *models.ProviderAccount) VerifyStatus {
	outcome := p.linkedin.GetAccountStatus(ctx, account)
	switch outcome.Category {
	case models.CategoryOK:
		return p.classifyStatusToken(outcome.Data)
	case models.CategoryCheckpoint:
		return VerifyNeedsCheckpoint
	case models.CategoryNotFound:
		return VerifyNotFound
	default:
		return VerifyTransient
	}
}

// classifyStatusToken maps the provider's "status" token, if present, to
// a VerifyStatus. Unknown tokens default to valid and are logged, per
// spec.md §4.4's permissive-default rule.
func (p *Pool) classifyStatusToken(data map[string]any) VerifyStatus {
	token, _ := data["status"].(string)
	switch token {
	case "", "OK", "CONNECTED", "active":
		return VerifyValid
	case "CREDENTIALS", "CHECKPOINT", "checkpoint_required":
		return VerifyNeedsCheckpoint
	case "DISCONNECTED", "not_found":
		return VerifyNotFound
	default:
		p.logger.Warn("accountpool: unknown provider status token, defaulting to valid", "token", token)
		return VerifyValid
	}
}

// OnUnauthorized handles a 401 from a provider call against account: it
// increments the account's attempt-window counter and, if the account is
// still healthy and under the attempt cap, invokes retry. Per spec.md
// §4.4.
func (p *Pool) OnUnauthorized(ctx context.Context, account *models.ProviderAccount, retry func() error) (UnauthorizedOutcome, error) {
	if !p.recordAttempt(account.ID) {
		return OutcomeAttemptsExhausted, nil
	}

	status := p.Verify(ctx, account)
	switch status {
	case VerifyValid:
		if err := retry(); err != nil {
			return OutcomeTransient, err
		}
		return OutcomeRetried, nil
	case VerifyNeedsCheckpoint:
		if err := p.accounts.UpdateStatus(ctx, account.ID, models.AccountCredentialsExpired, true); err != nil {
			p.logger.ErrorContext(ctx, "accountpool: failed to mark account needs-reconnect", "account_id", account.ID, "error", err)
		}
		return OutcomeRequiresUserIntervention, nil
	case VerifyNotFound:
		if err := p.accounts.UpdateStatus(ctx, account.ID, models.AccountInactive, false); err != nil {
			p.logger.ErrorContext(ctx, "accountpool: failed to mark account inactive", "account_id", account.ID, "error", err)
		}
		return OutcomeMarkedInactive, nil
	default:
		return OutcomeTransient, nil
	}
}

// recordAttempt increments account's attempt count within the current
// window, resetting the window if it has expired. Returns false once the
// account is at or over the attempt cap for its current window.
func (p *Pool) recordAttempt(accountID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	if element, found := p.cache[accountID]; found {
		p.lruList.MoveToFront(element)
		entry := element.Value.(*attemptEntry)
		if now.Sub(entry.windowStart) > p.windowLength {
			entry.windowStart = now
			entry.count = 0
		}
		if entry.count >= p.maxAttempts {
			return false
		}
		entry.count++
		return true
	}

	entry := &attemptEntry{accountID: accountID, count: 1, windowStart: now}
	element := p.lruList.PushFront(entry)
	p.cache[accountID] = element

	if p.lruList.Len() > attemptWindowCacheCapacity {
		oldest := p.lruList.Back()
		if oldest != nil {
			p.lruList.Remove(oldest)
			delete(p.cache, oldest.Value.(*attemptEntry).accountID)
		}
	}

	return true
}
