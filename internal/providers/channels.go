package providers

import (
	"context"
	"time"

	"github.com/smilemakc/outreachctl/internal/config"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// EmailClient sends outbound email.
type EmailClient interface {
	Send(ctx context.Context, toEmail, subject, body string) models.ProviderOutcome
}

// WhatsAppClient sends outbound WhatsApp messages.
type WhatsAppClient interface {
	Send(ctx context.Context, toPhone, message string) models.ProviderOutcome
}

// InstagramClient sends outbound Instagram DMs.
type InstagramClient interface {
	SendDM(ctx context.Context, username, message string) models.ProviderOutcome
}

// VoiceClient places outbound AI voice-agent calls.
type VoiceClient interface {
	PlaceCall(ctx context.Context, phone, agentID, context_ string) models.ProviderOutcome
}

// backendClient dispatches email/whatsapp/instagram/voice sends to the
// tenant's own backend (BACKEND_INTERNAL_URL), which owns the actual
// provider credentials for those channels. The orchestrator only needs a
// uniform send contract and a ProviderOutcome, per spec.md §4.7 step 3.
type backendClient struct {
	caller *httpCaller
}

func newBackendClient(cfg config.CampaignConfig) *backendClient {
	return &backendClient{caller: newHTTPCaller(cfg.BackendInternalURL, "", 30*time.Second)}
}

// NewEmailClient creates an EmailClient against the tenant backend.
func NewEmailClient(cfg config.CampaignConfig) EmailClient {
	return &backendEmailClient{backendClient: newBackendClient(cfg)}
}

// NewWhatsAppClient creates a WhatsAppClient against the tenant backend.
func NewWhatsAppClient(cfg config.CampaignConfig) WhatsAppClient {
	return &backendWhatsAppClient{backendClient: newBackendClient(cfg)}
}

// NewInstagramClient creates an InstagramClient against the tenant backend.
func NewInstagramClient(cfg config.CampaignConfig) InstagramClient {
	return &backendInstagramClient{backendClient: newBackendClient(cfg)}
}

// NewVoiceClient creates a VoiceClient against the tenant backend.
func NewVoiceClient(cfg config.CampaignConfig) VoiceClient {
	return &backendVoiceClient{backendClient: newBackendClient(cfg)}
}

type backendEmailClient struct{ *backendClient }

func (c *backendEmailClient) Send(ctx context.Context, toEmail, subject, body string) models.ProviderOutcome {
	return wrapErr(c.caller.do(ctx, "POST", "/internal/email/send", map[string]any{
		"to": toEmail, "subject": subject, "body": body,
	}), "email send")
}

type backendWhatsAppClient struct{ *backendClient }

func (c *backendWhatsAppClient) Send(ctx context.Context, toPhone, message string) models.ProviderOutcome {
	return wrapErr(c.caller.do(ctx, "POST", "/internal/whatsapp/send", map[string]any{
		"to": toPhone, "message": message,
	}), "whatsapp send")
}

type backendInstagramClient struct{ *backendClient }

func (c *backendInstagramClient) SendDM(ctx context.Context, username, message string) models.ProviderOutcome {
	return wrapErr(c.caller.do(ctx, "POST", "/internal/instagram/dm", map[string]any{
		"username": username, "message": message,
	}), "instagram dm")
}

type backendVoiceClient struct{ *backendClient }

func (c *backendVoiceClient) PlaceCall(ctx context.Context, phone, agentID, context_ string) models.ProviderOutcome {
	return wrapErr(c.caller.do(ctx, "POST", "/internal/voice/call", map[string]any{
		"phone": phone, "agent_id": agentID, "context": context_,
	}), "voice call")
}
