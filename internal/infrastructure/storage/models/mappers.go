package models

import (
	"encoding/json"
	"time"

	"github.com/smilemakc/outreachctl/pkg/models"
)

func jsonRoundTrip(in, out any) {
	b, err := json.Marshal(in)
	if err != nil {
		return
	}
	_ = json.Unmarshal(b, out)
}

// ToDomain converts a CampaignModel row into the public domain type.
func (c *CampaignModel) ToDomain() *models.Campaign {
	var cfg models.CampaignConfig
	jsonRoundTrip(c.Config, &cfg)

	return &models.Campaign{
		ID:              c.ID,
		TenantID:        c.TenantID,
		Name:            c.Name,
		Status:          models.CampaignStatus(c.Status),
		Config:          cfg,
		ExecutionState:  map[string]any(c.ExecutionState),
		LastRunDate:     dateFromTime(c.LastRunDate),
		CreatedByUserID: c.CreatedByUserID,
		IsDeleted:       c.IsDeleted,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// FromDomainCampaign populates a CampaignModel from the domain type,
// preserving the row's identity fields.
func FromDomainCampaign(c *models.Campaign) *CampaignModel {
	cfgMap := JSONBMap{}
	jsonRoundTrip(c.Config, &cfgMap)

	return &CampaignModel{
		ID:              c.ID,
		TenantID:        c.TenantID,
		Name:            c.Name,
		Status:          string(c.Status),
		Config:          cfgMap,
		ExecutionState:  JSONBMap(c.ExecutionState),
		LastRunDate:     timeFromDate(c.LastRunDate),
		CreatedByUserID: c.CreatedByUserID,
		IsDeleted:       c.IsDeleted,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func dateFromTime(t *time.Time) *models.Date {
	if t == nil {
		return nil
	}
	d := models.DateOf(*t)
	return &d
}

func timeFromDate(d *models.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time(time.UTC)
	return &t
}

// ToDomain converts a StepModel row into the public domain type.
func (s *StepModel) ToDomain() *models.Step {
	var cfg models.StepConfig
	jsonRoundTrip(s.Config, &cfg)
	return &models.Step{
		ID:         s.ID,
		CampaignID: s.CampaignID,
		Order:      s.Order,
		Type:       models.StepType(s.Type),
		Title:      s.Title,
		Config:     cfg,
	}
}

// FromDomainStep populates a StepModel from the domain type.
func FromDomainStep(s *models.Step) *StepModel {
	cfgMap := JSONBMap{}
	jsonRoundTrip(s.Config, &cfgMap)
	return &StepModel{
		ID:         s.ID,
		CampaignID: s.CampaignID,
		Order:      s.Order,
		Type:       string(s.Type),
		Title:      s.Title,
		Config:     cfgMap,
	}
}

// ToDomain converts a CampaignLeadModel row into the public domain type.
func (l *CampaignLeadModel) ToDomain() *models.CampaignLead {
	var snap models.LeadSnapshot
	jsonRoundTrip(l.Snapshot, &snap)
	return &models.CampaignLead{
		ID:                  l.ID,
		CampaignID:          l.CampaignID,
		TenantID:            l.TenantID,
		ExternalPersonID:    l.ExternalPersonID,
		LeadRef:             l.LeadRef,
		Status:              models.LeadStatus(l.Status),
		CurrentStepOrder:    l.CurrentStepOrder,
		EnrichedEmail:       l.EnrichedEmail,
		EnrichedLinkedInURL: l.EnrichedLinkedInURL,
		EnrichedAt:          l.EnrichedAt,
		Snapshot:            snap,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

// FromDomainLead populates a CampaignLeadModel from the domain type.
func FromDomainLead(l *models.CampaignLead) *CampaignLeadModel {
	snapMap := JSONBMap{}
	jsonRoundTrip(l.Snapshot, &snapMap)
	return &CampaignLeadModel{
		ID:                  l.ID,
		CampaignID:          l.CampaignID,
		TenantID:            l.TenantID,
		ExternalPersonID:    l.ExternalPersonID,
		LeadRef:             l.LeadRef,
		Status:              string(l.Status),
		CurrentStepOrder:    l.CurrentStepOrder,
		EnrichedEmail:       l.EnrichedEmail,
		EnrichedLinkedInURL: l.EnrichedLinkedInURL,
		EnrichedAt:          l.EnrichedAt,
		Snapshot:            snapMap,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

// ToDomain converts an ActivityModel row into the public domain type.
func (a *ActivityModel) ToDomain() *models.Activity {
	return &models.Activity{
		ID:             a.ID,
		TenantID:       a.TenantID,
		CampaignID:     a.CampaignID,
		CampaignLeadID: a.CampaignLeadID,
		StepID:         a.StepID,
		StepType:       models.StepType(a.StepType),
		ActionType:     a.ActionType,
		Channel:        a.Channel,
		Status:         models.ActivityStatus(a.Status),
		MessageContent: a.MessageContent,
		ErrorMessage:   a.ErrorMessage,
		Metadata:       map[string]any(a.Metadata),
		CreatedAt:      a.CreatedAt,
	}
}

// FromDomainActivity populates an ActivityModel from the domain type.
func FromDomainActivity(a *models.Activity) *ActivityModel {
	return &ActivityModel{
		ID:             a.ID,
		TenantID:       a.TenantID,
		CampaignID:     a.CampaignID,
		CampaignLeadID: a.CampaignLeadID,
		StepID:         a.StepID,
		StepType:       string(a.StepType),
		ActionType:     a.ActionType,
		Channel:        a.Channel,
		Status:         string(a.Status),
		MessageContent: a.MessageContent,
		ErrorMessage:   a.ErrorMessage,
		Metadata:       JSONBMap(a.Metadata),
		CreatedAt:      a.CreatedAt,
	}
}

// ToDomain converts a ProviderAccountModel row into the public domain type.
func (p *ProviderAccountModel) ToDomain() *models.ProviderAccount {
	return &models.ProviderAccount{
		ID:                p.ID,
		TenantID:          p.TenantID,
		Provider:          p.Provider,
		ExternalAccountID: p.ExternalAccountID,
		Status:            models.ProviderAccountStatus(p.Status),
		NeedsReconnect:    p.NeedsReconnect,
		DailyCap:          p.DailyCap,
		WeeklyCap:         p.WeeklyCap,
		Metadata:          map[string]any(p.Metadata),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToDomain converts an InvitationTrackModel row into the public domain type.
func (t *InvitationTrackModel) ToDomain() *models.InvitationTrack {
	return &models.InvitationTrack{
		ID:                   t.ID,
		TenantID:             t.TenantID,
		CampaignID:           t.CampaignID,
		CampaignLeadID:       t.CampaignLeadID,
		ExternalInvitationID: t.ExternalInvitationID,
		SentAt:               t.SentAt,
		LastSeenStatus:       models.InvitationLastSeenStatus(t.LastSeenStatus),
	}
}

// ToDomain converts an ExecutionLogModel row into the public domain type.
func (e *ExecutionLogModel) ToDomain() *models.ExecutionLog {
	return &models.ExecutionLog{
		ID:              e.ID,
		TenantID:        e.TenantID,
		CampaignID:      e.CampaignID,
		Status:          models.ExecutionLogStatus(e.Status),
		SkipReason:      e.SkipReason,
		LeadsAdvanced:   e.LeadsAdvanced,
		LeadsCompleted:  e.LeadsCompleted,
		LeadsStopped:    e.LeadsStopped,
		ActivitiesCount: e.ActivitiesCount,
		ErrorMessage:    e.ErrorMessage,
		RanAt:           e.RanAt,
	}
}

// ToDomain converts a TenantSettingsModel row into the public domain type.
func (t *TenantSettingsModel) ToDomain() *models.TenantSettings {
	return &models.TenantSettings{TenantID: t.TenantID, TZ: t.TZ}
}
