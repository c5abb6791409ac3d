// Package models defines the public domain models and error types for the
// campaign orchestrator.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a Campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignRunning   CampaignStatus = "running"
	CampaignPaused    CampaignStatus = "paused"
	CampaignStopped   CampaignStatus = "stopped"
	CampaignCompleted CampaignStatus = "completed"

	// CampaignActive is a legacy synonym for CampaignRunning. Writers must
	// never set it; IsExecutionEligible accepts it like CampaignRunning.
	CampaignActive CampaignStatus = "active"
)

// IsExecutionEligible reports whether a campaign in this status may be
// picked up by the Daily Scheduler. Both CampaignRunning and the legacy
// CampaignActive synonym are eligible: the scheduler's bootstrap scan and
// its locked daily run (scheduler.RunDaily) both accept either status.
func (s CampaignStatus) IsExecutionEligible() bool {
	return s == CampaignRunning || s == CampaignActive
}

// CampaignConfig is the structured config bag on a Campaign.
type CampaignConfig struct {
	LeadsPerDay        int        `json:"leads_per_day,omitempty"`
	LeadGenOffset      int        `json:"lead_gen_offset"`
	LastLeadGenDate    *Date      `json:"last_lead_gen_date,omitempty"`
	ConnectionMessage  string     `json:"connection_message,omitempty"`
	StartDate          *Date      `json:"start_date,omitempty"`
	EndDate            *Date      `json:"end_date,omitempty"`
}

// Campaign is a tenant-owned directed workflow of outreach steps applied
// per-lead.
type Campaign struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Name            string
	Status          CampaignStatus
	Config          CampaignConfig
	ExecutionState  map[string]any
	LastRunDate     *Date
	CreatedByUserID uuid.UUID
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StepType enumerates the kinds of action a Step can represent.
type StepType string

const (
	StepLeadGeneration  StepType = "lead_generation"
	StepLinkedInVisit   StepType = "linkedin_visit"
	StepLinkedInConnect StepType = "linkedin_connect"
	StepLinkedInMessage StepType = "linkedin_message"
	StepLinkedInFollow  StepType = "linkedin_follow"
	StepEmailSend       StepType = "email_send"
	StepEmailFollowup   StepType = "email_followup"
	StepWhatsAppSend    StepType = "whatsapp_send"
	StepInstagramDM     StepType = "instagram_dm"
	StepVoiceAgentCall  StepType = "voice_agent_call"
	StepDelay           StepType = "delay"
	StepCondition       StepType = "condition"
	StepStart           StepType = "start"
	StepEnd             StepType = "end"
)

// IsLinkedIn reports whether the step type dispatches through the LinkedIn
// provider client.
func (t StepType) IsLinkedIn() bool {
	switch t {
	case StepLinkedInVisit, StepLinkedInConnect, StepLinkedInMessage, StepLinkedInFollow:
		return true
	}
	return false
}

// IsNoOp reports whether the step type is a synthetic marker with no
// provider dispatch.
func (t StepType) IsNoOp() bool {
	return t == StepStart || t == StepEnd
}

// StepConfig is the free-form per-step configuration bag. Only the fields
// relevant to the step's type are populated; see validator.Rules.
type StepConfig struct {
	Message               string   `json:"message,omitempty"`
	Subject               string   `json:"subject,omitempty"`
	Body                  string   `json:"body,omitempty"`
	WhatsAppMessage       string   `json:"whatsappMessage,omitempty"`
	InstagramUsername     string   `json:"instagramUsername,omitempty"`
	InstagramDmMessage    string   `json:"instagramDmMessage,omitempty"`
	VoiceAgentID          string   `json:"voiceAgentId,omitempty"`
	VoiceContext          string   `json:"voiceContext,omitempty"`
	AddedContext          string   `json:"added_context,omitempty"`
	DelayDays             int      `json:"delayDays,omitempty"`
	DelayHours            int      `json:"delayHours,omitempty"`
	DelayMinutes          int      `json:"delayMinutes,omitempty"`
	ConditionType         string   `json:"conditionType,omitempty"`
	LeadGenerationLimit   int      `json:"leadGenerationLimit,omitempty"`
	LeadGenerationFilters *LeadGenerationFilters `json:"leadGenerationFilters,omitempty"`
	UserWantsMessage      bool     `json:"userWantsMessage,omitempty"`
}

// LeadGenerationFilters narrows a lead_generation step's sourcing query.
type LeadGenerationFilters struct {
	Roles      []string `json:"roles,omitempty"`
	Industries []string `json:"industries,omitempty"`
	Location   string   `json:"location,omitempty"`
}

// Delay returns the configured delay duration for a "delay" step.
func (c StepConfig) Delay() time.Duration {
	return time.Duration(c.DelayDays)*24*time.Hour +
		time.Duration(c.DelayHours)*time.Hour +
		time.Duration(c.DelayMinutes)*time.Minute
}

// Step is one action in a Campaign's total-ordered workflow.
type Step struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	Order      int
	Type       StepType
	Title      string
	Config     StepConfig
}

// LeadStatus is the lifecycle state of a CampaignLead.
type LeadStatus string

const (
	LeadActive    LeadStatus = "active"
	LeadCompleted LeadStatus = "completed"
	LeadStopped   LeadStatus = "stopped"
	LeadError     LeadStatus = "error"
)

// LeadSnapshot is the provider-sourced data captured for a lead at
// source time (and refreshed by enrichment/visit steps).
type LeadSnapshot struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Title        string `json:"title,omitempty"`
	Company      string `json:"company,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	Industry     string `json:"industry,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Headline     string `json:"headline,omitempty"`
	Summary      string `json:"summary,omitempty"`
	ProfileBlurb string `json:"profile_blurb,omitempty"`
}

// CampaignLead is a single lead's progress through a Campaign's workflow.
type CampaignLead struct {
	ID                   uuid.UUID
	CampaignID           uuid.UUID
	TenantID             uuid.UUID
	ExternalPersonID     string
	LeadRef              uuid.UUID
	Status               LeadStatus
	CurrentStepOrder     int
	EnrichedEmail        string
	EnrichedLinkedInURL  string
	EnrichedAt           *time.Time
	Snapshot             LeadSnapshot
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ActivityStatus is the outcome state of an Activity row.
type ActivityStatus string

const (
	ActivitySent       ActivityStatus = "sent"
	ActivityDelivered  ActivityStatus = "delivered"
	ActivityConnected  ActivityStatus = "connected"
	ActivityReplied    ActivityStatus = "replied"
	ActivityOpened     ActivityStatus = "opened"
	ActivityClicked    ActivityStatus = "clicked"
	ActivitySkipped    ActivityStatus = "skipped"
	ActivityError      ActivityStatus = "error"
)

// TerminalSuccessStatuses is the set of statuses that count as a
// terminal-success outcome for a (lead, step) pair per spec.md §3.
var TerminalSuccessStatuses = []ActivityStatus{ActivityDelivered, ActivityConnected, ActivityReplied}

// IsTerminalSuccess reports whether s is in TerminalSuccessStatuses.
func (s ActivityStatus) IsTerminalSuccess() bool {
	for _, t := range TerminalSuccessStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Activity is one append-only execution record for a (lead, step) pair.
type Activity struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	CampaignID      uuid.UUID
	CampaignLeadID  uuid.UUID
	StepID          uuid.UUID
	StepType        StepType
	ActionType      string
	Channel         string
	Status          ActivityStatus
	MessageContent  string
	ErrorMessage    string
	Metadata        map[string]any
	CreatedAt       time.Time
}

// ProviderAccountStatus is the lifecycle state of a ProviderAccount.
type ProviderAccountStatus string

const (
	AccountActive             ProviderAccountStatus = "active"
	AccountConnecting         ProviderAccountStatus = "connecting"
	AccountCredentialsExpired ProviderAccountStatus = "credentials_expired"
	AccountError              ProviderAccountStatus = "error"
	AccountStopped            ProviderAccountStatus = "stopped"
	AccountInactive           ProviderAccountStatus = "inactive"
)

// ProviderAccount is a single tenant-owned provider credential/session.
type ProviderAccount struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Provider          string
	ExternalAccountID string
	Status            ProviderAccountStatus
	NeedsReconnect    bool
	DailyCap          int
	WeeklyCap         *int
	Metadata          map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InvitationLastSeenStatus is the reconciled outcome of a LinkedIn
// invitation as observed by the Polling Worker.
type InvitationLastSeenStatus string

const (
	InvitationPending   InvitationLastSeenStatus = "pending"
	InvitationAccepted  InvitationLastSeenStatus = "accepted"
	InvitationDeclined  InvitationLastSeenStatus = "declined"
	InvitationWithdrawn InvitationLastSeenStatus = "withdrawn"
	InvitationUnknown   InvitationLastSeenStatus = "unknown"
)

// InvitationTrack is the reconciled view of a single LinkedIn invitation.
type InvitationTrack struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	CampaignID         uuid.UUID
	CampaignLeadID     uuid.UUID
	ExternalInvitationID string
	SentAt             time.Time
	LastSeenStatus     InvitationLastSeenStatus
	UpdatedAt          time.Time
}

// Date is a calendar date with no time-of-day or zone component, used for
// "today" comparisons that must be evaluated in tenant-local time.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t (already converted to the desired zone by the
// caller) down to a Date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Equal reports whether two dates denote the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// Before reports whether d denotes a calendar day strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Time returns the Date as a midnight time.Time in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return d.Time(time.UTC).Format("2006-01-02")
}

// TenantSettings holds per-tenant scheduling configuration not otherwise
// modeled by spec.md's opaque Tenant entity.
type TenantSettings struct {
	TenantID uuid.UUID
	TZ       string
}

// Location parses the tenant's IANA zone, defaulting to UTC on any error
// or empty value.
func (t TenantSettings) Location() *time.Location {
	if t.TZ == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
