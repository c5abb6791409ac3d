package models

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeCategory classifies a ProviderOutcome for dispatcher/executor
// branching, independent of the raw provider status code.
type OutcomeCategory string

const (
	CategoryOK                 OutcomeCategory = "ok"
	CategoryRateLimit          OutcomeCategory = "rate_limit"
	CategoryCredentialsExpired OutcomeCategory = "credentials_expired"
	CategoryNotFound           OutcomeCategory = "not_found"
	CategoryTransient          OutcomeCategory = "transient"
	CategoryValidation         OutcomeCategory = "validation"
	CategoryCheckpoint         OutcomeCategory = "checkpoint"
	CategoryUnknown            OutcomeCategory = "unknown"
)

// ProviderOutcome is the shared result shape returned by every C3 provider
// client call (spec.md §4.3).
type ProviderOutcome struct {
	Success    bool
	Data       map[string]any
	Error      string
	Category   OutcomeCategory
	StatusCode int
}

// IsOK reports whether the outcome represents a successful provider call.
func (o ProviderOutcome) IsOK() bool {
	return o.Success && o.Category == CategoryOK
}

// ExecutionLogStatus is the outcome of a single C10 daily run for one
// campaign.
type ExecutionLogStatus string

const (
	ExecutionLogSuccess ExecutionLogStatus = "success"
	ExecutionLogFailure ExecutionLogStatus = "failure"
	ExecutionLogSkipped ExecutionLogStatus = "skipped"
)

// ExecutionLog is one row of campaign_execution_log. The scheduler writes
// only failure records (spec.md §4.10 step 7); successful and skipped runs
// write no row.
type ExecutionLog struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	CampaignID      uuid.UUID
	Status          ExecutionLogStatus
	SkipReason      string
	LeadsAdvanced   int
	LeadsCompleted  int
	LeadsStopped    int
	ActivitiesCount int
	ErrorMessage    string
	RanAt           time.Time
}
