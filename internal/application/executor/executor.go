package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/application/accountpool"
	"github.com/smilemakc/outreachctl/internal/application/enrichment"
	"github.com/smilemakc/outreachctl/internal/application/ledger"
	"github.com/smilemakc/outreachctl/internal/application/quota"
	"github.com/smilemakc/outreachctl/internal/application/template"
	"github.com/smilemakc/outreachctl/internal/application/validator"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/internal/providers"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// Executor dispatches a validated Step against the right provider client
// and records the outcome to the ledger, per spec.md §4.7.
type Executor struct {
	ledger      *ledger.Ledger
	quota       *quota.Gate
	pool        *accountpool.Pool
	enrichCache *enrichment.Cache
	invitations repository.InvitationTrackRepository

	linkedin  providers.LinkedInClient
	email     providers.EmailClient
	whatsapp  providers.WhatsAppClient
	instagram providers.InstagramClient
	voice     providers.VoiceClient
	summarize providers.Summarizer

	quiescence time.Duration
	logger     *logger.Logger
}

// New creates an Executor.
func New(
	l *ledger.Ledger,
	q *quota.Gate,
	pool *accountpool.Pool,
	enrichCache *enrichment.Cache,
	invitations repository.InvitationTrackRepository,
	linkedin providers.LinkedInClient,
	email providers.EmailClient,
	whatsapp providers.WhatsAppClient,
	instagram providers.InstagramClient,
	voice providers.VoiceClient,
	summarize providers.Summarizer,
	quiescence time.Duration,
	logr *logger.Logger,
) *Executor {
	if quiescence <= 0 {
		quiescence = 10 * time.Second
	}
	return &Executor{
		ledger: l, quota: q, pool: pool, enrichCache: enrichCache, invitations: invitations,
		linkedin: linkedin, email: email, whatsapp: whatsapp, instagram: instagram, voice: voice,
		summarize: summarize, quiescence: quiescence, logger: logr,
	}
}

// Execute implements spec.md §4.7's execute(campaign_id, step, lead,
// actor) → Outcome algorithm.
func (e *Executor) Execute(ctx context.Context, campaignID uuid.UUID, step *models.Step, lead *models.CampaignLead, account *models.ProviderAccount) Outcome {
	result := validator.Validate(step)
	if !result.Valid {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", result.Error, nil)
		return Outcome{OK: false, Validation: true, Error: result.Error}
	}

	if step.Type.IsNoOp() {
		return Outcome{OK: true}
	}
	if step.Type == models.StepDelay || step.Type == models.StepCondition {
		// C8 owns delay/condition semantics; C7 is never dispatched for
		// these step types.
		return Outcome{OK: true}
	}

	vars := template.Tokens(lead.Snapshot)

	var sentID uuid.UUID
	if step.Type != models.StepLeadGeneration {
		id, err := e.recordActivity(ctx, lead, step, models.ActivitySent, "", "", nil)
		if err != nil {
			return Outcome{OK: false, Error: err.Error()}
		}
		sentID = id
	}

	switch {
	case step.Type.IsLinkedIn():
		return e.executeLinkedIn(ctx, campaignID, step, lead, account, vars, sentID)
	case step.Type == models.StepEmailSend || step.Type == models.StepEmailFollowup:
		return e.executeEmail(ctx, step, lead, vars, sentID)
	case step.Type == models.StepWhatsAppSend:
		return e.executeWhatsApp(ctx, step, lead, vars, sentID)
	case step.Type == models.StepInstagramDM:
		return e.executeInstagram(ctx, step, lead, vars, sentID)
	case step.Type == models.StepVoiceAgentCall:
		return e.executeVoice(ctx, step, lead, vars, sentID)
	default:
		err := fmt.Sprintf("no dispatcher for step type %q", step.Type)
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err, nil)
		return Outcome{OK: false, Error: err}
	}
}

// ensureLinkedInURL implements spec.md §4.7.2's enrichment guard.
func (e *Executor) ensureLinkedInURL(ctx context.Context, lead *models.CampaignLead) error {
	if lead.EnrichedLinkedInURL != "" {
		return nil
	}
	if _, err := e.enrichCache.Enrich(ctx, lead); err != nil {
		return fmt.Errorf("enrichment guard: %w", err)
	}
	if lead.EnrichedLinkedInURL == "" {
		return fmt.Errorf("linkedin_url_missing")
	}
	return nil
}

func (e *Executor) executeLinkedIn(ctx context.Context, campaignID uuid.UUID, step *models.Step, lead *models.CampaignLead, primary *models.ProviderAccount, vars map[string]string, sentID uuid.UUID) Outcome {
	switch step.Type {
	case models.StepLinkedInConnect:
		return e.executeLinkedInConnect(ctx, campaignID, step, lead, primary, vars, sentID)
	case models.StepLinkedInMessage:
		return e.executeLinkedInMessage(ctx, step, lead, primary, vars, sentID)
	case models.StepLinkedInVisit:
		return e.executeLinkedInVisit(ctx, step, lead, primary, sentID)
	case models.StepLinkedInFollow:
		return e.executeLinkedInFollow(ctx, step, lead, primary, sentID)
	default:
		return Outcome{OK: false, Error: "unreachable linkedin step type"}
	}
}

func (e *Executor) executeLinkedInConnect(ctx context.Context, campaignID uuid.UUID, step *models.Step, lead *models.CampaignLead, primary *models.ProviderAccount, vars map[string]string, sentID uuid.UUID) Outcome {
	defer time.Sleep(e.quiescence)

	if err := e.ensureLinkedInURL(ctx, lead); err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: "linkedin_url_missing"}
	}

	daily, weekly, err := e.quota.CheckBoth(ctx, lead.TenantID)
	if err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: err.Error()}
	}
	if !daily.Allowed || !weekly.Allowed {
		e.recordActivity(ctx, lead, step, models.ActivitySkipped, "", "quota exceeded", nil)
		return Outcome{OK: false, Error: "quota"}
	}

	accounts, err := e.pool.FallbackOrder(ctx, lead.TenantID, "linkedin", primary)
	if err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: err.Error()}
	}

	message := template.Render(step.Config.Message, vars)
	result := connectWithFallback(ctx, accounts, lead.EnrichedLinkedInURL, message, step.Config.UserWantsMessage, e.linkedin.Invite)

	if !result.ok {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", result.errMsg, map[string]any{"reason": result.errReason})
		return Outcome{OK: false, Error: result.errMsg, Reason: result.errReason}
	}

	e.updateResult(ctx, sentID, models.ActivityDelivered, message, "", map[string]any{"strategy": result.strategy})
	return Outcome{OK: true, Strategy: result.strategy}
}

func (e *Executor) executeLinkedInMessage(ctx context.Context, step *models.Step, lead *models.CampaignLead, account *models.ProviderAccount, vars map[string]string, sentID uuid.UUID) Outcome {
	if err := e.ensureLinkedInURL(ctx, lead); err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: "linkedin_url_missing"}
	}

	track, err := e.invitations.GetByLead(ctx, lead.ID)
	if err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: err.Error()}
	}
	if track == nil || track.LastSeenStatus != models.InvitationAccepted {
		e.recordActivity(ctx, lead, step, models.ActivitySkipped, "", "waiting_acceptance", nil)
		return Outcome{OK: false, Skipped: true, Reason: "waiting_acceptance"}
	}

	message := template.Render(step.Config.Message, vars)
	outcome := e.linkedin.SendMessage(ctx, lead.EnrichedLinkedInURL, account, message)
	if !outcome.IsOK() {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", outcome.Error, nil)
		return Outcome{OK: false, Error: outcome.Error}
	}
	e.updateResult(ctx, sentID, models.ActivityDelivered, message, "", nil)
	return Outcome{OK: true}
}

func (e *Executor) executeLinkedInVisit(ctx context.Context, step *models.Step, lead *models.CampaignLead, account *models.ProviderAccount, sentID uuid.UUID) Outcome {
	if err := e.ensureLinkedInURL(ctx, lead); err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: "linkedin_url_missing"}
	}

	outcome := e.linkedin.GetProfile(ctx, lead.EnrichedLinkedInURL, account)
	if outcome.Category == models.CategoryCredentialsExpired {
		// One alternate-account retry, per spec.md §4.7.1.
		if accounts, err := e.pool.FallbackOrder(ctx, lead.TenantID, "linkedin", account); err == nil {
			for _, alt := range accounts {
				if account == nil || alt.ID != account.ID {
					outcome = e.linkedin.GetProfile(ctx, lead.EnrichedLinkedInURL, alt)
					break
				}
			}
		}
	}
	if !outcome.IsOK() {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", outcome.Error, nil)
		return Outcome{OK: false, Error: outcome.Error}
	}

	lead.Snapshot.Phone, _ = outcome.Data["phone"].(string)
	lead.Snapshot.Headline, _ = outcome.Data["headline"].(string)
	if summary := e.generateSummary(ctx, lead); summary != "" {
		lead.Snapshot.Summary = summary
	}

	e.updateResult(ctx, sentID, models.ActivityDelivered, "", "", nil)
	return Outcome{OK: true}
}

// generateSummary invokes the optional Summarizer; errors are logged and
// swallowed since the profile summary is a non-essential enrichment.
func (e *Executor) generateSummary(ctx context.Context, lead *models.CampaignLead) string {
	summary, err := e.summarize.Summarize(ctx, lead.Snapshot)
	if err != nil {
		e.logger.WarnContext(ctx, "linkedin_visit: profile summary failed", "lead_id", lead.ID, "error", err)
		return ""
	}
	return summary
}

func (e *Executor) executeLinkedInFollow(ctx context.Context, step *models.Step, lead *models.CampaignLead, account *models.ProviderAccount, sentID uuid.UUID) Outcome {
	if err := e.ensureLinkedInURL(ctx, lead); err != nil {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", err.Error(), nil)
		return Outcome{OK: false, Error: "linkedin_url_missing"}
	}
	outcome := e.linkedin.Follow(ctx, lead.EnrichedLinkedInURL, account)
	if !outcome.IsOK() {
		e.recordActivity(ctx, lead, step, models.ActivityError, "", outcome.Error, nil)
		return Outcome{OK: false, Error: outcome.Error}
	}
	e.updateResult(ctx, sentID, models.ActivityDelivered, "", "", nil)
	return Outcome{OK: true}
}

func (e *Executor) executeEmail(ctx context.Context, step *models.Step, lead *models.CampaignLead, vars map[string]string, sentID uuid.UUID) Outcome {
	subject := template.Render(step.Config.Subject, vars)
	body := template.Render(step.Config.Body, vars)
	outcome := e.email.Send(ctx, lead.EnrichedEmail, subject, body)
	return e.finishProviderOutcome(ctx, step, lead, outcome, body, sentID)
}

func (e *Executor) executeWhatsApp(ctx context.Context, step *models.Step, lead *models.CampaignLead, vars map[string]string, sentID uuid.UUID) Outcome {
	message := template.Render(step.Config.WhatsAppMessage, vars)
	outcome := e.whatsapp.Send(ctx, lead.Snapshot.Phone, message)
	return e.finishProviderOutcome(ctx, step, lead, outcome, message, sentID)
}

func (e *Executor) executeInstagram(ctx context.Context, step *models.Step, lead *models.CampaignLead, vars map[string]string, sentID uuid.UUID) Outcome {
	message := template.Render(step.Config.InstagramDmMessage, vars)
	outcome := e.instagram.SendDM(ctx, step.Config.InstagramUsername, message)
	return e.finishProviderOutcome(ctx, step, lead, outcome, message, sentID)
}

func (e *Executor) executeVoice(ctx context.Context, step *models.Step, lead *models.CampaignLead, vars map[string]string, sentID uuid.UUID) Outcome {
	voiceContext := step.Config.VoiceContext
	if voiceContext == "" {
		voiceContext = step.Config.AddedContext
	}
	voiceContext = template.Render(voiceContext, vars)
	outcome := e.voice.PlaceCall(ctx, lead.Snapshot.Phone, step.Config.VoiceAgentID, voiceContext)
	return e.finishProviderOutcome(ctx, step, lead, outcome, "", sentID)
}

// finishProviderOutcome records the terminal activity for a plain
// provider-client dispatch (email/whatsapp/instagram/voice) and builds
// the matching Outcome.
func (e *Executor) finishProviderOutcome(ctx context.Context, step *models.Step, lead *models.CampaignLead, outcome models.ProviderOutcome, content string, sentID uuid.UUID) Outcome {
	if !outcome.IsOK() {
		e.recordActivity(ctx, lead, step, models.ActivityError, content, outcome.Error, nil)
		return Outcome{OK: false, Error: outcome.Error}
	}
	e.updateResult(ctx, sentID, models.ActivityDelivered, content, "", nil)
	return Outcome{OK: true}
}

func (e *Executor) recordActivity(ctx context.Context, lead *models.CampaignLead, step *models.Step, status models.ActivityStatus, content, errMsg string, metadata map[string]any) (uuid.UUID, error) {
	return e.ledger.Record(ctx, &models.Activity{
		TenantID:       lead.TenantID,
		CampaignID:     step.CampaignID,
		CampaignLeadID: lead.ID,
		StepID:         step.ID,
		StepType:       step.Type,
		ActionType:     string(step.Type),
		Status:         status,
		MessageContent: content,
		ErrorMessage:   errMsg,
		Metadata:       metadata,
	})
}

// updateResult moves the "sent" row sentID recorded before dispatch to
// status in place, so a successful send leaves exactly one row behind
// instead of a "sent" row plus a second terminal row (the latter would
// double-count toward C2's quota window for linkedin_connect). Errors
// are logged by the ledger itself; there is no further fallback here
// since the provider call already succeeded.
func (e *Executor) updateResult(ctx context.Context, sentID uuid.UUID, status models.ActivityStatus, content, errMsg string, metadata map[string]any) {
	if sentID == uuid.Nil {
		return
	}
	_ = e.ledger.UpdateResult(ctx, sentID, status, content, errMsg, metadata)
}
