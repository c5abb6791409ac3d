package executor

import (
	"context"

	"github.com/smilemakc/outreachctl/pkg/models"
)

// connectAttemptKey distinguishes the with-message and without-message
// forms of an invite to the same account, so a single account is never
// tried twice in the same form.
type connectAttemptKey struct {
	accountIndex int
	withMessage  bool
}

// connectResult is the outcome of the full per-account fallback loop.
type connectResult struct {
	ok        bool
	strategy  string
	errReason string
	errMsg    string
}

// accumulatedErrors tallies terminal-error categories across every
// exhausted account, so the final failure message names the dominant
// cause per spec.md §4.7.1.
type accumulatedErrors struct {
	credentialErrors int
	rateLimitErrors  int
	otherErrors      int
}

func (a *accumulatedErrors) record(category models.OutcomeCategory) {
	switch category {
	case models.CategoryCredentialsExpired, models.CategoryCheckpoint:
		a.credentialErrors++
	case models.CategoryRateLimit:
		a.rateLimitErrors++
	default:
		a.otherErrors++
	}
}

// dominant returns the (reason, message) pair for the terminal failure,
// per spec.md §4.7.1's "dominant category" rule.
func (a *accumulatedErrors) dominant() (string, string) {
	switch {
	case a.rateLimitErrors >= a.credentialErrors && a.rateLimitErrors >= a.otherErrors && a.rateLimitErrors > 0:
		return "rate_limit", "weekly or daily invite limit reached across all accounts"
	case a.credentialErrors >= a.otherErrors && a.credentialErrors > 0:
		return "credentials", "no valid accounts available; reconnect required"
	default:
		return "failure", "unable to send connection request on any account"
	}
}

// connectWithFallback implements spec.md §4.7.1's per-account loop: for
// each account in order, try with-message (if wanted), fall back to
// without-message on rate limit, and advance to the next account on any
// other error.
func connectWithFallback(
	ctx context.Context,
	accounts []*models.ProviderAccount,
	providerID string,
	message string,
	userWantsMessage bool,
	invite func(ctx context.Context, providerID string, account *models.ProviderAccount, message string) models.ProviderOutcome,
) connectResult {
	var errs accumulatedErrors

	for _, account := range accounts {
		if userWantsMessage && message != "" {
			outcome := invite(ctx, providerID, account, message)
			if outcome.IsOK() {
				return connectResult{ok: true, strategy: "with_message"}
			}
			if outcome.Category == models.CategoryRateLimit {
				// Fall through to without-message attempt on the same
				// account below.
			} else {
				errs.record(outcome.Category)
				continue
			}
		}

		outcome := invite(ctx, providerID, account, "")
		if outcome.IsOK() {
			strategy := "without_message"
			if userWantsMessage && message != "" {
				strategy = "fallback_to_without_message"
			}
			return connectResult{ok: true, strategy: strategy}
		}
		errs.record(outcome.Category)
	}

	reason, msg := errs.dominant()
	return connectResult{errReason: reason, errMsg: msg}
}
