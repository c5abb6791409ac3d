package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CampaignModel represents a campaign row in the database.
type CampaignModel struct {
	bun.BaseModel `bun:"table:campaigns,alias:c"`

	ID              uuid.UUID  `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	TenantID        uuid.UUID  `bun:"tenant_id,notnull,type:uuid" json:"tenant_id"`
	Name            string     `bun:"name,notnull" json:"name" validate:"required,max=255"`
	Status          string     `bun:"status,notnull,default:'draft'" json:"status" validate:"required,oneof=draft running paused stopped completed active"`
	Config          JSONBMap   `bun:"config,type:jsonb,default:'{}'" json:"config,omitempty"`
	ExecutionState  JSONBMap   `bun:"execution_state,type:jsonb,default:'{}'" json:"execution_state,omitempty"`
	LastRunDate     *time.Time `bun:"last_run_date" json:"last_run_date,omitempty"`
	CreatedByUserID uuid.UUID  `bun:"created_by_user_id,type:uuid" json:"created_by_user_id"`
	IsDeleted       bool       `bun:"is_deleted,notnull,default:false" json:"is_deleted"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Steps []*StepModel `bun:"rel:has-many,join:id=campaign_id" json:"steps,omitempty"`
}

// BeforeInsert sets defaults and timestamps prior to an insert. Callers
// (the repository layer) invoke this explicitly before bun's NewInsert,
// since bun's append-model hooks require the query-level interface and a
// plain pre-insert helper keeps the model package free of a bun.Query
// import.
func (c *CampaignModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Config == nil {
		c.Config = make(JSONBMap)
	}
	if c.ExecutionState == nil {
		c.ExecutionState = make(JSONBMap)
	}
	if c.Status == "" {
		c.Status = "draft"
	}
	return nil
}

// BeforeUpdate refreshes the updated_at timestamp.
func (c *CampaignModel) BeforeUpdate(ctx interface{}) error {
	c.UpdatedAt = time.Now()
	return nil
}

// IsExecutionEligible mirrors models.CampaignStatus.IsExecutionEligible.
func (c *CampaignModel) IsExecutionEligible() bool {
	return c.Status == "running" || c.Status == "active"
}

// StepModel represents one step of a campaign's total-ordered workflow.
type StepModel struct {
	bun.BaseModel `bun:"table:campaign_steps,alias:cs"`

	ID         uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	CampaignID uuid.UUID `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`
	Order      int       `bun:"order,notnull" json:"order"`
	Type       string    `bun:"type,notnull" json:"type" validate:"required"`
	Title      string    `bun:"title" json:"title,omitempty"`
	Config     JSONBMap  `bun:"config,type:jsonb,default:'{}'" json:"config,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (s *StepModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Config == nil {
		s.Config = make(JSONBMap)
	}
	return nil
}

func (s *StepModel) BeforeUpdate(ctx interface{}) error {
	s.UpdatedAt = time.Now()
	return nil
}

// CampaignLeadModel represents a lead's progress through a campaign.
type CampaignLeadModel struct {
	bun.BaseModel `bun:"table:campaign_leads,alias:cl"`

	ID                  uuid.UUID  `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	CampaignID          uuid.UUID  `bun:"campaign_id,notnull,type:uuid" json:"campaign_id"`
	TenantID            uuid.UUID  `bun:"tenant_id,notnull,type:uuid" json:"tenant_id"`
	ExternalPersonID    string     `bun:"external_person_id,notnull" json:"external_person_id"`
	LeadRef             uuid.UUID  `bun:"lead_ref,type:uuid" json:"lead_ref"`
	Status              string     `bun:"status,notnull,default:'active'" json:"status" validate:"required,oneof=active completed stopped error"`
	CurrentStepOrder    int        `bun:"current_step_order,notnull,default:0" json:"current_step_order"`
	EnrichedEmail       string     `bun:"enriched_email" json:"enriched_email,omitempty"`
	EnrichedLinkedInURL string     `bun:"enriched_linkedin_url" json:"enriched_linkedin_url,omitempty"`
	EnrichedAt          *time.Time `bun:"enriched_at" json:"enriched_at,omitempty"`
	Snapshot            JSONBMap   `bun:"snapshot,type:jsonb,default:'{}'" json:"snapshot,omitempty"`
	CreatedAt           time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (l *CampaignLeadModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.LeadRef == uuid.Nil {
		l.LeadRef = uuid.New()
	}
	if l.Snapshot == nil {
		l.Snapshot = make(JSONBMap)
	}
	if l.Status == "" {
		l.Status = "active"
	}
	return nil
}

func (l *CampaignLeadModel) BeforeUpdate(ctx interface{}) error {
	l.UpdatedAt = time.Now()
	return nil
}

// IsEnriched reports whether the lead has already been enriched in its
// current campaign row (spec.md §4.5 step 1).
func (l *CampaignLeadModel) IsEnriched() bool {
	return l.EnrichedAt != nil
}
