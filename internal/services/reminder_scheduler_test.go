package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

func newTestScheduler(repo repositories.TaskRepository, rec *eventRecorder, senders ...ChannelSender) *ReminderScheduler {
	s := NewReminderScheduler(repo, newTestDispatcher(rec, senders...), SchedulerConfig{})
	s.now = func() time.Time { return testNow }
	return s
}

func storeReminderTask(t *testing.T, repo repositories.TaskRepository, id string, remTime time.Time) {
	t.Helper()
	err := repo.Store(context.Background(), &models.Task{
		ID:               id,
		CompanyID:        "co-1",
		Title:            "task " + id,
		Status:           models.StatusPending,
		CreatedBy:        "user-1",
		AssignedTo:       "user-1",
		ReminderEnabled:  true,
		ReminderTime:     &remTime,
		ReminderChannels: []models.ReminderChannel{models.ChannelInApp},
		CreatedAt:        testNow.Add(-time.Hour),
		UpdatedAt:        testNow.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
}

func TestScanClaimsDueReminder(t *testing.T) {
	repo := repositories.NewMemoryTaskRepository()
	rec := &eventRecorder{}
	sender := &fakeSender{channel: models.ChannelInApp}
	s := newTestScheduler(repo, rec, sender)

	storeReminderTask(t, repo, "due", testNow.Add(-time.Minute))

	claimed, err := s.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("claimed = %d, want 1", claimed)
	}
	if sender.attempts.Load() != 1 {
		t.Errorf("sends = %d, want 1", sender.attempts.Load())
	}

	stored, _ := repo.FindByID(context.Background(), "co-1", "due")
	if !stored.ReminderSent {
		t.Error("reminder_sent not persisted")
	}
	events := rec.ofType(models.EventTaskReminder)
	if len(events) != 1 {
		t.Fatalf("task:reminder events = %d, want 1", len(events))
	}
	if len(events[0].ReminderChannels) != 1 || events[0].ReminderChannels[0] != models.ChannelInApp {
		t.Errorf("event channels = %v, want [IN_APP]", events[0].ReminderChannels)
	}
}

func TestScanSkipsFutureAndSentReminders(t *testing.T) {
	repo := repositories.NewMemoryTaskRepository()
	rec := &eventRecorder{}
	sender := &fakeSender{channel: models.ChannelInApp}
	s := newTestScheduler(repo, rec, sender)

	storeReminderTask(t, repo, "future", testNow.Add(time.Hour))
	storeReminderTask(t, repo, "sent", testNow.Add(-time.Minute))
	if ok, _ := repo.ClaimReminder(context.Background(), "co-1", "sent"); !ok {
		t.Fatal("setup claim failed")
	}
	disabled := testNow.Add(-time.Minute)
	repo.Store(context.Background(), &models.Task{
		ID: "disabled", CompanyID: "co-1", Title: "disabled",
		Status: models.StatusPending, CreatedBy: "user-1",
		ReminderEnabled: false, ReminderTime: &disabled,
	})

	claimed, err := s.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if claimed != 0 {
		t.Errorf("claimed = %d, want 0", claimed)
	}
	if sender.attempts.Load() != 0 {
		t.Errorf("sends = %d, want 0", sender.attempts.Load())
	}
}

// Competing instances over the same store: the compare-and-set claim lets
// exactly one of them dispatch each reminder.
func TestConcurrentScansClaimAtMostOnce(t *testing.T) {
	repo := repositories.NewMemoryTaskRepository()
	rec := &eventRecorder{}
	sender := &fakeSender{channel: models.ChannelInApp}

	storeReminderTask(t, repo, "contested", testNow.Add(-time.Minute))

	const instances = 8
	schedulers := make([]*ReminderScheduler, instances)
	for i := range schedulers {
		schedulers[i] = newTestScheduler(repo, rec, sender)
	}

	var wg sync.WaitGroup
	claims := make([]int, instances)
	for i := range schedulers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := schedulers[i].ScanOnce(context.Background())
			if err != nil {
				t.Errorf("instance %d: %v", i, err)
			}
			claims[i] = n
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range claims {
		total += n
	}
	if total != 1 {
		t.Errorf("total claims = %d, want exactly 1", total)
	}
	if sender.attempts.Load() != 1 {
		t.Errorf("dispatches = %d, want exactly 1", sender.attempts.Load())
	}
	if got := rec.ofType(models.EventTaskReminder); len(got) != 1 {
		t.Errorf("task:reminder events = %d, want 1", len(got))
	}
}

// A claim that dispatches with failures is still spent; the next scan must
// not pick the task up again.
func TestFailedDispatchIsNotRetriedByNextScan(t *testing.T) {
	repo := repositories.NewMemoryTaskRepository()
	rec := &eventRecorder{}
	sender := &fakeSender{channel: models.ChannelInApp, failUntil: 100}
	s := newTestScheduler(repo, rec, sender)

	storeReminderTask(t, repo, "flaky", testNow.Add(-time.Minute))

	if claimed, _ := s.ScanOnce(context.Background()); claimed != 1 {
		t.Fatal("first scan should claim")
	}
	attemptsAfterFirst := sender.attempts.Load()

	if claimed, _ := s.ScanOnce(context.Background()); claimed != 0 {
		t.Error("second scan claimed an already-sent reminder")
	}
	if sender.attempts.Load() != attemptsAfterFirst {
		t.Error("second scan re-dispatched")
	}
}

func TestScanHonorsBatchLimit(t *testing.T) {
	repo := repositories.NewMemoryTaskRepository()
	rec := &eventRecorder{}
	sender := &fakeSender{channel: models.ChannelInApp}
	s := NewReminderScheduler(repo, newTestDispatcher(rec, sender), SchedulerConfig{BatchLimit: 2})
	s.now = func() time.Time { return testNow }

	for _, id := range []string{"r1", "r2", "r3"} {
		storeReminderTask(t, repo, id, testNow.Add(-time.Minute))
	}

	claimed, err := s.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if claimed != 2 {
		t.Errorf("claimed = %d, want batch limit 2", claimed)
	}

	claimed, _ = s.ScanOnce(context.Background())
	if claimed != 1 {
		t.Errorf("second scan claimed = %d, want the remaining 1", claimed)
	}
}
