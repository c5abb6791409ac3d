// Package scheduler implements spec.md §4.10's Daily Scheduler (C10): one
// `runDaily` invocation per campaign per tenant-local day, row-locking the
// campaign, invoking C9 when the campaign has a lead_generation step, then
// driving C8 once over every active lead, and self-enqueuing tomorrow's
// run.
//
// Grounded on internal/application/trigger/cron_scheduler.go's
// robfig/cron entry-management shape (a map of id -> cron.EntryID guarded
// by a mutex, Start/Stop lifecycle), adapted from that file's generic
// workflow-trigger abstraction (ExecutionManager/TriggerRepository) to
// §4.10's one-shot-per-campaign-per-day scheduling: instead of a single
// repeating cron.Schedule per trigger, each run re-enqueues its own single
// next firing via cron.Cron.Schedule with a one-off cron.SpecSchedule, the
// self-enqueue mechanism spec.md §4.10 step 6 calls for.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/smilemakc/outreachctl/internal/application/accountpool"
	"github.com/smilemakc/outreachctl/internal/application/eventbus"
	"github.com/smilemakc/outreachctl/internal/application/sourcer"
	"github.com/smilemakc/outreachctl/internal/application/workflow"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// Skip/failure reasons reported in Result.Reason.
const (
	ReasonNotFound       = "not_found"
	ReasonNotRunning     = "not_running"
	ReasonAlreadyRanToday = "already_ran_today"
)

// Result reports what runDaily did for one campaign.
type Result struct {
	Skipped        bool
	Reason         string
	LeadsAdvanced  int
	LeadsCompleted int
	LeadsStopped   int
}

// Scheduler runs spec.md §4.10's per-campaign daily execution and
// self-enqueues the next day's run on the `robfig/cron` clock.
type Scheduler struct {
	campaigns    repository.CampaignRepository
	steps        repository.StepRepository
	leads        repository.CampaignLeadRepository
	executionLog repository.ExecutionLogRepository
	sourcer      *sourcer.Sourcer
	driver       *workflow.Driver
	pool         *accountpool.Pool
	bus          *eventbus.Bus
	tz           *time.Location

	cron    *cron.Cron
	entries map[uuid.UUID]cron.EntryID
	mu      sync.Mutex

	logger *logger.Logger
}

// New creates a Scheduler. tz is the tenant-local timezone spec.md §6
// names (TZ); all "today"/"tomorrow 00:00" computations use it.
func New(
	campaigns repository.CampaignRepository,
	steps repository.StepRepository,
	leads repository.CampaignLeadRepository,
	executionLog repository.ExecutionLogRepository,
	src *sourcer.Sourcer,
	driver *workflow.Driver,
	pool *accountpool.Pool,
	bus *eventbus.Bus,
	tz *time.Location,
	l *logger.Logger,
) *Scheduler {
	return &Scheduler{
		campaigns:    campaigns,
		steps:        steps,
		leads:        leads,
		executionLog: executionLog,
		sourcer:      src,
		driver:       driver,
		pool:         pool,
		bus:          bus,
		tz:           tz,
		cron:         cron.New(cron.WithLocation(tz)),
		entries:      make(map[uuid.UUID]cron.EntryID),
		logger:       l,
	}
}

// Start boots the cron clock and enqueues an immediate run for every
// execution-eligible campaign, so a restarted server does not wait for
// tomorrow to pick campaigns back up.
func (s *Scheduler) Start(ctx context.Context) error {
	campaigns, err := s.campaigns.ListExecutionEligible(ctx)
	if err != nil {
		return fmt.Errorf("list execution-eligible campaigns: %w", err)
	}
	s.cron.Start()
	for _, c := range campaigns {
		s.EnqueueNow(ctx, c.ID)
	}
	return nil
}

// Stop drains the cron clock, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// EnqueueNow schedules an immediate one-shot run for campaignID.
func (s *Scheduler) EnqueueNow(ctx context.Context, campaignID uuid.UUID) {
	s.enqueueAt(campaignID, time.Now().In(s.tz))
}

// enqueueAt replaces campaignID's pending entry (if any) with a one-shot
// firing at at.
func (s *Scheduler) enqueueAt(campaignID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[campaignID]; ok {
		s.cron.Remove(id)
	}
	entryID := s.cron.Schedule(oneShotAt(at), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.RunDaily(ctx, campaignID); err != nil {
			s.logger.ErrorContext(ctx, "scheduler: runDaily failed", "campaign_id", campaignID, "error", err)
		}
	}))
	s.entries[campaignID] = entryID
}

// RunDaily implements spec.md §4.10's runDaily(campaign_id) for one
// campaign. A run that goes ahead re-enqueues tomorrow's run (unless the
// campaign's end date falls before it) before returning; a skipped run
// enqueues nothing.
func (s *Scheduler) RunDaily(ctx context.Context, campaignID uuid.UUID) (Result, error) {
	var result Result
	var runErr error

	acquired, lockErr := s.campaigns.LockForDailyRun(ctx, campaignID, func(ctx context.Context, c *models.Campaign) error {
		result, runErr = s.runLocked(ctx, c)
		return runErr
	})
	if lockErr != nil {
		s.recordFailure(ctx, campaignID, lockErr)
		return Result{}, lockErr
	}
	if !acquired {
		return Result{Skipped: true, Reason: ReasonNotFound}, nil
	}
	return result, nil
}

// runLocked is invoked by LockForDailyRun while holding the campaign's row
// lock; c reflects the row as read under that lock.
func (s *Scheduler) runLocked(ctx context.Context, c *models.Campaign) (Result, error) {
	if !c.Status.IsExecutionEligible() {
		return Result{Skipped: true, Reason: ReasonNotRunning}, nil
	}

	today := models.DateOf(time.Now().In(s.tz))
	if c.LastRunDate != nil && c.LastRunDate.Equal(today) {
		return Result{Skipped: true, Reason: ReasonAlreadyRanToday}, nil
	}

	if c.Config.EndDate != nil && c.Config.EndDate.Before(today) {
		c.Status = models.CampaignCompleted
		if err := s.campaigns.Update(ctx, c); err != nil {
			return Result{}, fmt.Errorf("mark campaign completed: %w", err)
		}
		return Result{Skipped: true, Reason: "campaign_ended"}, nil
	}

	steps, err := s.steps.ListByCampaign(ctx, c.ID)
	if err != nil {
		return Result{}, fmt.Errorf("list steps: %w", err)
	}

	if sourceStep := findLeadGenerationStep(steps); sourceStep != nil {
		if _, err := s.sourcer.Source(ctx, c, sourceStep, today); err != nil {
			return Result{}, fmt.Errorf("source leads: %w", err)
		}
	}

	result, err := s.advanceActiveLeads(ctx, c)
	if err != nil {
		return result, err
	}

	c.LastRunDate = &today
	if err := s.campaigns.Update(ctx, c); err != nil {
		return result, fmt.Errorf("persist last_run_date: %w", err)
	}

	tomorrowMidnight := today.Time(s.tz).AddDate(0, 0, 1)
	if c.Config.EndDate == nil || !c.Config.EndDate.Before(models.DateOf(tomorrowMidnight)) {
		s.enqueueAt(c.ID, tomorrowMidnight)
	}

	s.bus.Publish(ctx, eventbus.TopicCampaignStats, eventbus.Event{
		Type: eventbus.EventTypeCampaignStats, Topic: eventbus.CampaignTopic(c.ID),
		TenantID: c.TenantID, CampaignID: &c.ID, Timestamp: time.Now(),
		Data: map[string]any{"leads_advanced": result.LeadsAdvanced, "leads_completed": result.LeadsCompleted, "leads_stopped": result.LeadsStopped},
	})

	return result, nil
}

// advanceActiveLeads drives C8 once over every active lead in c.
func (s *Scheduler) advanceActiveLeads(ctx context.Context, c *models.Campaign) (Result, error) {
	var result Result

	leads, err := s.leads.ListActiveByCampaign(ctx, c.ID)
	if err != nil {
		return result, fmt.Errorf("list active leads: %w", err)
	}

	account, err := s.pool.Pick(ctx, c.TenantID, "linkedin")
	if err != nil {
		return result, fmt.Errorf("pick account: %w", err)
	}

	for _, lead := range leads {
		advance, err := s.driver.Advance(ctx, c.ID, lead, account)
		if err != nil {
			s.logger.ErrorContext(ctx, "scheduler: advance failed for lead", "lead_id", lead.ID, "error", err)
			continue
		}
		switch {
		case advance.NewStatus == models.LeadCompleted:
			result.LeadsCompleted++
		case advance.NewStatus == models.LeadStopped:
			result.LeadsStopped++
		case advance.Dispatched:
			result.LeadsAdvanced++
		}
	}
	return result, nil
}

func (s *Scheduler) recordFailure(ctx context.Context, campaignID uuid.UUID, cause error) {
	if err := s.executionLog.Record(ctx, &models.ExecutionLog{
		ID: uuid.New(), CampaignID: campaignID, Status: models.ExecutionLogFailure,
		ErrorMessage: cause.Error(), RanAt: time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "scheduler: failed to persist failure record", "campaign_id", campaignID, "error", err)
	}
}

func findLeadGenerationStep(steps []*models.Step) *models.Step {
	for _, st := range steps {
		if st.Type == models.StepLeadGeneration {
			return st
		}
	}
	return nil
}

// oneShotAt builds a cron.Schedule that fires exactly once, at at, by
// returning at for the first Next() call and the zero time afterward —
// robfig/cron never fires an entry whose Next is zero. The spent entry
// stays registered until enqueueAt removes it by id when the campaign's
// next run is scheduled.
type oneShot struct {
	at   time.Time
	done bool
}

func oneShotAt(at time.Time) cron.Schedule {
	return &oneShot{at: at}
}

func (o *oneShot) Next(t time.Time) time.Time {
	if o.done {
		return time.Time{}
	}
	o.done = true
	return o.at
}
