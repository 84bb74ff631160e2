// internal/services/reminder_scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

// SchedulerConfig carries the deployment knobs of the reminder scan loop.
// The cadence is not a correctness parameter; correctness rests on the
// store's compare-and-set claim alone.
type SchedulerConfig struct {
	Interval     time.Duration
	BatchLimit   int
	Workers      int
	ClaimTimeout time.Duration
	// DispatchTimeout bounds one task's full multi-channel dispatch.
	DispatchTimeout time.Duration
}

func (c *SchedulerConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 100
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ClaimTimeout <= 0 {
		c.ClaimTimeout = 5 * time.Second
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 30 * time.Second
	}
}

// ReminderScheduler periodically scans for due, unsent reminders and claims
// them. Multiple instances may run concurrently; at most one wins each
// claim. A claimed reminder that fails to dispatch is not retried.
type ReminderScheduler struct {
	repo       repositories.TaskRepository
	dispatcher *NotificationDispatcher
	cfg        SchedulerConfig

	cron *cron.Cron
	jobs chan models.Task
	wg   sync.WaitGroup
	now  func() time.Time
}

func NewReminderScheduler(repo repositories.TaskRepository, dispatcher *NotificationDispatcher, cfg SchedulerConfig) *ReminderScheduler {
	cfg.applyDefaults()
	return &ReminderScheduler{
		repo:       repo,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Start launches the worker pool and the interval job.
func (s *ReminderScheduler) Start() error {
	s.jobs = make(chan models.Task, s.cfg.BatchLimit)
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.cron = cron.New()
	spec := fmt.Sprintf("@every %ds", int(s.cfg.Interval.Seconds()))
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
		defer cancel()
		if _, err := s.ScanOnce(ctx); err != nil {
			log.Printf("[reminder][scan][err] %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[reminder] scheduler started interval=%s workers=%d", s.cfg.Interval, s.cfg.Workers)
	return nil
}

// Stop halts scanning, drains in-flight dispatches and returns.
func (s *ReminderScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.jobs != nil {
		close(s.jobs)
		s.wg.Wait()
	}
}

// ScanOnce runs a single scan-and-claim pass and returns how many reminders
// this instance claimed. Claimed tasks are handed to the worker pool; when
// the scheduler was never started the dispatch happens inline.
func (s *ReminderScheduler) ScanOnce(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueReminders(ctx, s.now(), s.cfg.BatchLimit)
	if err != nil {
		return 0, err
	}

	claimed := 0
	for _, task := range due {
		// Per-item timeout so one stuck claim cannot stall the scan.
		claimCtx, cancel := context.WithTimeout(ctx, s.cfg.ClaimTimeout)
		ok, err := s.repo.ClaimReminder(claimCtx, task.CompanyID, task.ID)
		cancel()
		if err != nil {
			log.Printf("[reminder][claim][err] task=%s: %v", task.ID, err)
			continue
		}
		if !ok {
			// Another instance won the race.
			continue
		}
		claimed++
		task.ReminderSent = true
		if s.jobs != nil {
			s.jobs <- task
		} else {
			s.dispatch(task)
		}
	}
	if claimed > 0 {
		log.Printf("[reminder][scan] due=%d claimed=%d", len(due), claimed)
	}
	return claimed, nil
}

func (s *ReminderScheduler) worker() {
	defer s.wg.Done()
	for task := range s.jobs {
		s.dispatch(task)
	}
}

func (s *ReminderScheduler) dispatch(task models.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DispatchTimeout)
	defer cancel()
	s.dispatcher.Dispatch(ctx, &task)
}
