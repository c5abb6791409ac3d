package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityModel represents one append-only execution record for a
// (campaign_lead, step) pair.
type ActivityModel struct {
	bun.BaseModel `bun:"table:campaign_lead_activities,alias:a"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	TenantID       uuid.UUID `bun:"tenant_id,notnull,type:uuid" json:"tenant_id"`
	CampaignID     uuid.UUID `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`
	CampaignLeadID uuid.UUID `bun:"campaign_lead_id,notnull,type:uuid" json:"campaign_lead_id"`
	StepID         uuid.UUID `bun:"step_id,notnull,type:uuid" json:"step_id"`
	StepType       string    `bun:"step_type,notnull" json:"step_type"`
	ActionType     string    `bun:"action_type" json:"action_type,omitempty"`
	Channel        string    `bun:"channel" json:"channel,omitempty"`
	Status         string    `bun:"status,notnull" json:"status" validate:"required,oneof=sent delivered connected replied opened clicked skipped error"`
	MessageContent string    `bun:"message_content" json:"message_content,omitempty"`
	ErrorMessage   string    `bun:"error_message" json:"error_message,omitempty"`
	Metadata       JSONBMap  `bun:"metadata,type:jsonb,default:'{}'" json:"metadata,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (a *ActivityModel) BeforeInsert(ctx interface{}) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Metadata == nil {
		a.Metadata = make(JSONBMap)
	}
	return nil
}

// IsTerminalSuccess reports whether this row counts toward the
// partial-unique-index terminal-success set (spec.md §3).
func (a *ActivityModel) IsTerminalSuccess() bool {
	switch a.Status {
	case "delivered", "connected", "replied":
		return true
	}
	return false
}

// ProviderAccountModel represents a tenant-owned provider credential.
// Table name kept as linkedin_accounts per SPEC_FULL §3 even though the
// model is provider-generic.
type ProviderAccountModel struct {
	bun.BaseModel `bun:"table:linkedin_accounts,alias:pa"`

	ID                uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	TenantID          uuid.UUID `bun:"tenant_id,notnull,type:uuid" json:"tenant_id"`
	Provider          string    `bun:"provider,notnull,default:'linkedin'" json:"provider"`
	ExternalAccountID string    `bun:"external_account_id,notnull" json:"external_account_id"`
	Status            string    `bun:"status,notnull,default:'connecting'" json:"status" validate:"required,oneof=active connecting credentials_expired error stopped inactive"`
	NeedsReconnect    bool      `bun:"needs_reconnect,notnull,default:false" json:"needs_reconnect"`
	DailyCap          int       `bun:"daily_cap,notnull,default:0" json:"daily_cap"`
	WeeklyCap         *int      `bun:"weekly_cap" json:"weekly_cap,omitempty"`
	Metadata          JSONBMap  `bun:"metadata,type:jsonb,default:'{}'" json:"metadata,omitempty"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (p *ProviderAccountModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Metadata == nil {
		p.Metadata = make(JSONBMap)
	}
	if p.Provider == "" {
		p.Provider = "linkedin"
	}
	return nil
}

func (p *ProviderAccountModel) BeforeUpdate(ctx interface{}) error {
	p.UpdatedAt = time.Now()
	return nil
}

// IsActive reports whether the account may currently be selected by C4.
func (p *ProviderAccountModel) IsActive() bool {
	return p.Status == "active"
}

// InvitationTrackModel is the reconciled view of a single LinkedIn
// invitation, maintained by C11.
type InvitationTrackModel struct {
	bun.BaseModel `bun:"table:invitation_tracks,alias:it"`

	ID                   uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	TenantID             uuid.UUID `bun:"tenant_id,notnull,type:uuid" json:"tenant_id"`
	CampaignID           uuid.UUID `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`
	CampaignLeadID       uuid.UUID `bun:"campaign_lead_id,notnull,type:uuid" json:"campaign_lead_id"`
	ExternalInvitationID string    `bun:"external_invitation_id,notnull" json:"external_invitation_id"`
	SentAt               time.Time `bun:"sent_at,notnull" json:"sent_at"`
	LastSeenStatus       string    `bun:"last_seen_status,notnull,default:'pending'" json:"last_seen_status" validate:"required,oneof=pending accepted declined withdrawn unknown"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (t *InvitationTrackModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.SentAt.IsZero() {
		t.SentAt = now
	}
	t.UpdatedAt = now
	if t.LastSeenStatus == "" {
		t.LastSeenStatus = "pending"
	}
	return nil
}

func (t *InvitationTrackModel) BeforeUpdate(ctx interface{}) error {
	t.UpdatedAt = time.Now()
	return nil
}

// ExecutionLogModel records one C10 daily-run outcome for a campaign.
// The scheduler writes only failures (spec.md §4.10 step 7); successful
// and skipped runs write no row.
type ExecutionLogModel struct {
	bun.BaseModel `bun:"table:campaign_execution_log,alias:el"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	TenantID        uuid.UUID `bun:"tenant_id,notnull,type:uuid" json:"tenant_id"`
	CampaignID      uuid.UUID `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`
	Status          string    `bun:"status,notnull" json:"status" validate:"required,oneof=success failure skipped"`
	SkipReason      string    `bun:"skip_reason" json:"skip_reason,omitempty"`
	LeadsAdvanced   int       `bun:"leads_advanced,notnull,default:0" json:"leads_advanced"`
	LeadsCompleted  int       `bun:"leads_completed,notnull,default:0" json:"leads_completed"`
	LeadsStopped    int       `bun:"leads_stopped,notnull,default:0" json:"leads_stopped"`
	ActivitiesCount int       `bun:"activities_count,notnull,default:0" json:"activities_count"`
	ErrorMessage    string    `bun:"error_message" json:"error_message,omitempty"`
	RanAt           time.Time `bun:"ran_at,notnull,default:current_timestamp" json:"ran_at"`
}

func (e *ExecutionLogModel) BeforeInsert(ctx interface{}) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RanAt.IsZero() {
		e.RanAt = time.Now()
	}
	return nil
}

// TenantSettingsModel holds per-tenant scheduling configuration.
type TenantSettingsModel struct {
	bun.BaseModel `bun:"table:tenant_settings,alias:ts"`

	TenantID  uuid.UUID `bun:"tenant_id,pk,type:uuid" json:"tenant_id"`
	TZ        string    `bun:"tz,notnull,default:'UTC'" json:"tz"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (t *TenantSettingsModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.TZ == "" {
		t.TZ = "UTC"
	}
	return nil
}

func (t *TenantSettingsModel) BeforeUpdate(ctx interface{}) error {
	t.UpdatedAt = time.Now()
	return nil
}
