package providers

import (
	"context"
	"time"

	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// LinkedInClient is the C3 contract for every LinkedIn action used by the
// step executor and account pool (spec.md §4.3, §4.4).
type LinkedInClient interface {
	Lookup(ctx context.Context, publicID string, account *models.ProviderAccount) (string, models.ProviderOutcome)
	Invite(ctx context.Context, providerID string, account *models.ProviderAccount, message string) models.ProviderOutcome
	SendMessage(ctx context.Context, providerID string, account *models.ProviderAccount, text string) models.ProviderOutcome
	Follow(ctx context.Context, providerID string, account *models.ProviderAccount) models.ProviderOutcome
	GetProfile(ctx context.Context, publicID string, account *models.ProviderAccount) models.ProviderOutcome
	ListInvitations(ctx context.Context, account *models.ProviderAccount, filters map[string]any) models.ProviderOutcome
	// GetAccountStatus probes the provider for the account's current
	// session health, used by C4's verify().
	GetAccountStatus(ctx context.Context, account *models.ProviderAccount) models.ProviderOutcome
}

// unipileClient is a LinkedInClient backed by the Unipile messaging API
// (UNIPILE_DSN/UNIPILE_TOKEN), the account's ExternalAccountID identifying
// the linked LinkedIn session on Unipile's side.
type unipileClient struct {
	caller         *httpCaller
	profileTimeout time.Duration
}

// NewUnipileLinkedInClient creates a LinkedInClient against cfg's Unipile
// DSN.
func NewUnipileLinkedInClient(cfg config.UnipileConfig) LinkedInClient {
	return &unipileClient{
		caller:         newHTTPCaller(cfg.DSN, cfg.Token, cfg.LookupTimeout),
		profileTimeout: cfg.ProfileTimeout,
	}
}

func (c *unipileClient) Lookup(ctx context.Context, publicID string, account *models.ProviderAccount) (string, models.ProviderOutcome) {
	outcome := c.caller.do(ctx, "GET", "/api/v1/users/"+publicID+"?account_id="+account.ExternalAccountID, nil)
	if !outcome.IsOK() {
		return "", wrapErr(outcome, "linkedin lookup")
	}
	providerID, _ := outcome.Data["provider_id"].(string)
	return providerID, outcome
}

func (c *unipileClient) Invite(ctx context.Context, providerID string, account *models.ProviderAccount, message string) models.ProviderOutcome {
	body := map[string]any{
		"account_id":  account.ExternalAccountID,
		"provider_id": providerID,
	}
	if message != "" {
		body["message"] = message
	}
	return wrapErr(c.caller.do(ctx, "POST", "/api/v1/users/invite", body), "linkedin invite")
}

func (c *unipileClient) SendMessage(ctx context.Context, providerID string, account *models.ProviderAccount, text string) models.ProviderOutcome {
	body := map[string]any{
		"account_id":  account.ExternalAccountID,
		"attendee_id": providerID,
		"text":        text,
	}
	return wrapErr(c.caller.do(ctx, "POST", "/api/v1/chats", body), "linkedin send message")
}

func (c *unipileClient) Follow(ctx context.Context, providerID string, account *models.ProviderAccount) models.ProviderOutcome {
	body := map[string]any{
		"account_id":  account.ExternalAccountID,
		"provider_id": providerID,
	}
	return wrapErr(c.caller.do(ctx, "POST", "/api/v1/users/follow", body), "linkedin follow")
}

func (c *unipileClient) GetProfile(ctx context.Context, publicID string, account *models.ProviderAccount) models.ProviderOutcome {
	path := "/api/v1/users/" + publicID + "?account_id=" + account.ExternalAccountID + "&sections=*"
	return wrapErr(c.caller.do(ctx, "GET", path, nil), "linkedin get profile")
}

func (c *unipileClient) ListInvitations(ctx context.Context, account *models.ProviderAccount, filters map[string]any) models.ProviderOutcome {
	path := "/api/v1/users/invite/sent?account_id=" + account.ExternalAccountID
	return wrapErr(c.caller.do(ctx, "GET", path, nil), "linkedin list invitations")
}

func (c *unipileClient) GetAccountStatus(ctx context.Context, account *models.ProviderAccount) models.ProviderOutcome {
	path := "/api/v1/accounts/" + account.ExternalAccountID
	return wrapErr(c.caller.do(ctx, "GET", path, nil), "linkedin account status")
}
