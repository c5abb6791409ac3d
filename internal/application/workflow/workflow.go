// Package workflow implements spec.md §4.8's Workflow Driver (C8): the
// per-lead single-lead advancement algorithm that walks a campaign's
// total-ordered step list, recursing through skips, delay gates, and
// condition checks until it lands on a step that must actually be
// dispatched to C7, or the lead terminates.
//
// Grounded on internal/application/engine/dag_executor.go's
// execution-state bookkeeping conventions (explicit per-node state
// transitions, one step advanced per call), simplified here from a
// general wave-parallel DAG walk to linear-with-skip recursion: spec.md's
// steps form a total order, not a graph, so there is no wave/parent-set
// bookkeeping to carry over.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/application/executor"
	"github.com/smilemakc/outreachctl/internal/application/ledger"
	"github.com/smilemakc/outreachctl/internal/application/validator"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// AdvanceResult reports what happened to a lead on one Advance call.
type AdvanceResult struct {
	// NewStatus is set when the lead transitioned out of active.
	NewStatus models.LeadStatus
	Waiting   bool
	Dispatched bool
	StepID    uuid.UUID
	Outcome   executor.Outcome
}

// stepExecutor is the subset of *executor.Executor the driver depends on,
// kept narrow so tests don't need to wire the full C3-C7 stack.
type stepExecutor interface {
	Execute(ctx context.Context, campaignID uuid.UUID, step *models.Step, lead *models.CampaignLead, account *models.ProviderAccount) executor.Outcome
}

// Driver advances a single lead through its campaign's step list.
type Driver struct {
	steps      repository.StepRepository
	leads      repository.CampaignLeadRepository
	ledger     *ledger.Ledger
	executor   stepExecutor
	conditions *conditionCache
	logger     *logger.Logger
}

// New creates a Driver.
func New(steps repository.StepRepository, leads repository.CampaignLeadRepository, l *ledger.Ledger, exec stepExecutor, logr *logger.Logger) *Driver {
	return &Driver{steps: steps, leads: leads, ledger: l, executor: exec, conditions: newConditionCache(32), logger: logr}
}

// Advance runs spec.md §4.8's algorithm once for lead within campaignID,
// recursing through skip/delay/condition steps until it either dispatches
// a step, finds the lead waiting, or terminates the lead.
func (d *Driver) Advance(ctx context.Context, campaignID uuid.UUID, lead *models.CampaignLead, account *models.ProviderAccount) (AdvanceResult, error) {
	if lead.Status != models.LeadActive {
		return AdvanceResult{}, nil
	}

	steps, err := d.steps.ListByCampaign(ctx, campaignID)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("list steps: %w", err)
	}

	return d.advanceFrom(ctx, campaignID, lead, account, steps)
}

func (d *Driver) advanceFrom(ctx context.Context, campaignID uuid.UUID, lead *models.CampaignLead, account *models.ProviderAccount, steps []*models.Step) (AdvanceResult, error) {
	lastSuccess, err := d.ledger.LatestSuccessForLead(ctx, lead.ID)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("latest success for lead: %w", err)
	}

	nextIndex := 0
	if lastSuccess != nil {
		nextIndex = indexOfStep(steps, lastSuccess.StepID) + 1
	}

	if nextIndex >= len(steps) {
		return d.complete(ctx, lead)
	}
	nextStep := steps[nextIndex]

	terminalExists, err := d.terminalSuccessExists(ctx, campaignID, nextStep, lead)
	if err != nil {
		return AdvanceResult{}, err
	}
	if terminalExists {
		return d.advanceFrom(ctx, campaignID, lead, account, steps[nextIndex+1:])
	}

	result := validator.Validate(nextStep)
	if !result.Valid {
		if _, err := d.ledger.Record(ctx, &models.Activity{
			TenantID: lead.TenantID, CampaignID: campaignID, CampaignLeadID: lead.ID,
			StepID: nextStep.ID, StepType: nextStep.Type, ActionType: string(nextStep.Type),
			Status: models.ActivityError, ErrorMessage: result.Error,
		}); err != nil {
			d.logger.ErrorContext(ctx, "workflow: failed to record invalid-step activity", "lead_id", lead.ID, "error", err)
		}
		return d.stop(ctx, lead)
	}

	switch nextStep.Type {
	case models.StepDelay:
		if lastSuccess == nil {
			return AdvanceResult{}, fmt.Errorf("delay step %s has no preceding success to gate from", nextStep.ID)
		}
		gateTime := lastSuccess.CreatedAt.Add(nextStep.Config.Delay())
		if time.Now().Before(gateTime) {
			return AdvanceResult{Waiting: true, StepID: nextStep.ID}, nil
		}
		return d.advanceFrom(ctx, campaignID, lead, account, steps[nextIndex+1:])

	case models.StepCondition:
		satisfied, err := d.evaluateCondition(ctx, lead.ID, nextStep.Config.ConditionType)
		if err != nil {
			return AdvanceResult{}, err
		}
		if !satisfied {
			return d.stop(ctx, lead)
		}
		return d.advanceFrom(ctx, campaignID, lead, account, steps[nextIndex+1:])

	default:
		outcome := d.executor.Execute(ctx, campaignID, nextStep, lead, account)
		if isTerminalDispatchOutcome(outcome) {
			stopped, err := d.stop(ctx, lead)
			if err != nil {
				return AdvanceResult{}, err
			}
			stopped.Dispatched = true
			stopped.StepID = nextStep.ID
			stopped.Outcome = outcome
			return stopped, nil
		}
		return AdvanceResult{Dispatched: true, StepID: nextStep.ID, Outcome: outcome}, nil
	}
}

// isTerminalDispatchOutcome reports whether a C7 dispatch failure is an
// unrecoverable dispatcher outcome per spec.md §7/§4.8's state table
// (quota, no_valid_accounts, weekly_limit): the quota gate rejected the
// attempt, or every fallback account was exhausted on rate limits or
// credentials. Plain provider-transient failures return false so the
// lead stays active for the scheduler's next daily run.
func isTerminalDispatchOutcome(outcome executor.Outcome) bool {
	if outcome.OK {
		return false
	}
	if outcome.Error == "quota" {
		return true
	}
	switch outcome.Reason {
	case "rate_limit", "credentials":
		return true
	default:
		return false
	}
}

// terminalSuccessExists implements spec.md §4.8 step 2's idempotency
// rule: a step that already has a delivered/connected/replied Activity
// for this lead is never re-dispatched.
func (d *Driver) terminalSuccessExists(ctx context.Context, campaignID uuid.UUID, step *models.Step, lead *models.CampaignLead) (bool, error) {
	activities, err := d.ledger.ListForLead(ctx, lead.ID)
	if err != nil {
		return false, fmt.Errorf("list for lead: %w", err)
	}
	for _, a := range activities {
		if a.StepID == step.ID && a.Status.IsTerminalSuccess() {
			return true, nil
		}
	}
	return false, nil
}

// evaluateCondition implements spec.md §4.8 step 5's condition checks:
// the step's ConditionType selects a small boolean expression over the
// lead's recent activities, compiled once per expression and cached in
// d.conditions, then run against the lead's actual activity history.
func (d *Driver) evaluateCondition(ctx context.Context, leadID uuid.UUID, conditionType string) (bool, error) {
	source, ok := conditionExprs[conditionType]
	if !ok {
		return false, fmt.Errorf("unknown condition type %q", conditionType)
	}

	program, err := d.conditions.compile(source)
	if err != nil {
		return false, err
	}

	activities, err := d.ledger.ListForLead(ctx, leadID)
	if err != nil {
		return false, fmt.Errorf("list for lead: %w", err)
	}
	env := activityEnv(activities)

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", source, err)
	}
	satisfied, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a bool", source)
	}
	return satisfied, nil
}

// activityEnv folds a lead's activity history into the flags
// conditionExprs's expressions run against.
func activityEnv(activities []*models.Activity) conditionEnv {
	var env conditionEnv
	for _, a := range activities {
		switch a.Status {
		case models.ActivityConnected:
			env.Connected = true
		case models.ActivityReplied:
			env.Replied = true
		case models.ActivityOpened:
			env.Opened = true
		case models.ActivityClicked:
			env.Clicked = true
		case models.ActivityDelivered:
			env.Delivered = true
		case models.ActivitySent:
			env.Sent = true
		}
	}
	return env
}

func (d *Driver) complete(ctx context.Context, lead *models.CampaignLead) (AdvanceResult, error) {
	lead.Status = models.LeadCompleted
	if err := d.leads.Update(ctx, lead); err != nil {
		return AdvanceResult{}, fmt.Errorf("complete lead: %w", err)
	}
	return AdvanceResult{NewStatus: models.LeadCompleted}, nil
}

func (d *Driver) stop(ctx context.Context, lead *models.CampaignLead) (AdvanceResult, error) {
	lead.Status = models.LeadStopped
	if err := d.leads.Update(ctx, lead); err != nil {
		return AdvanceResult{}, fmt.Errorf("stop lead: %w", err)
	}
	return AdvanceResult{NewStatus: models.LeadStopped}, nil
}

// indexOfStep returns the index of the step with id stepID in steps, or
// -1 if not present (e.g. the step was removed from the campaign after
// the activity was recorded).
func indexOfStep(steps []*models.Step, stepID uuid.UUID) int {
	for i, s := range steps {
		if s.ID == stepID {
			return i
		}
	}
	return -1
}
