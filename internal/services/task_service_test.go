package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

// eventRecorder captures published lifecycle events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *eventRecorder) Publish(companyID string, ev models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []models.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TaskEvent(nil), r.events...)
}

func (r *eventRecorder) ofType(t models.EventType) []models.TaskEvent {
	var out []models.TaskEvent
	for _, ev := range r.all() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

var testNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) // Wednesday

func newTestService(t *testing.T) (*taskService, repositories.TaskRepository, *eventRecorder) {
	t.Helper()
	repo := repositories.NewMemoryTaskRepository()
	rec := &eventRecorder{}
	svc := NewTaskService(repo, rec).(*taskService)
	svc.now = func() time.Time { return testNow }
	return svc, repo, rec
}

func mustCreate(t *testing.T, svc *taskService, task *models.Task) *models.Task {
	t.Helper()
	created, err := svc.Create(context.Background(), task)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created
}

func strPtr(s string) *string                          { return &s }
func statusPtr(s models.TaskStatus) *models.TaskStatus { return &s }

func TestCreateTrimsTitleAndAppliesDefaults(t *testing.T) {
	svc, _, rec := newTestService(t)

	created := mustCreate(t, svc, &models.Task{
		CompanyID: "co-1",
		CreatedBy: "user-1",
		Title:     "  Follow up with client  ",
	})

	if created.Title != "Follow up with client" {
		t.Errorf("title = %q, want trimmed", created.Title)
	}
	if created.Status != models.StatusPending {
		t.Errorf("status = %q, want PENDING", created.Status)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want MEDIUM", created.Priority)
	}
	if created.Type != models.TypeGeneral {
		t.Errorf("type = %q, want GENERAL", created.Type)
	}
	if created.ID == "" {
		t.Error("id not generated")
	}
	if !created.CreatedAt.Equal(testNow) || !created.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v/%v, want %v", created.CreatedAt, created.UpdatedAt, testNow)
	}
	if got := rec.ofType(models.EventTaskCreated); len(got) != 1 || got[0].TaskID != created.ID {
		t.Errorf("task:created events = %+v, want exactly one for %s", got, created.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	remTime := testNow.Add(time.Hour)

	cases := []struct {
		name string
		task models.Task
	}{
		{"empty title", models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "   "}},
		{"reminder without time", models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x", ReminderEnabled: true}},
		{"unknown priority", models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x", Priority: "EXTREME"}},
		{"unknown channel", models.Task{
			CompanyID: "co-1", CreatedBy: "u", Title: "x",
			ReminderEnabled: true, ReminderTime: &remTime,
			ReminderChannels: []models.ReminderChannel{"CARRIER_PIGEON"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			if _, err := svc.Create(context.Background(), &task); !IsValidation(err) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCreateReminderDefaultsToInApp(t *testing.T) {
	svc, _, _ := newTestService(t)
	remTime := testNow.Add(time.Hour)

	created := mustCreate(t, svc, &models.Task{
		CompanyID:       "co-1",
		CreatedBy:       "user-1",
		Title:           "Call lead",
		ReminderEnabled: true,
		ReminderTime:    &remTime,
	})
	if len(created.ReminderChannels) != 1 || created.ReminderChannels[0] != models.ChannelInApp {
		t.Errorf("reminder_channels = %v, want [IN_APP]", created.ReminderChannels)
	}
	if created.ReminderSent {
		t.Error("reminder_sent must start false")
	}
}

func TestCreateRelationPrecedence(t *testing.T) {
	svc, _, _ := newTestService(t)

	created := mustCreate(t, svc, &models.Task{
		CompanyID:         "co-1",
		CreatedBy:         "user-1",
		Title:             "Visit",
		RelatedLeadID:     "lead-1",
		RelatedCustomerID: "cust-1",
	})
	if created.RelatedLeadID != "" {
		t.Errorf("related_lead_id = %q, want cleared when customer present", created.RelatedLeadID)
	}
	rel := created.PrimaryRelation()
	if rel.Kind != models.RelationCustomer || rel.ID != "cust-1" {
		t.Errorf("primary relation = %+v, want customer cust-1", rel)
	}
}

func TestUpdateNotFoundAcrossTenants(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x"})

	_, err := svc.Update(context.Background(), "co-2", created.ID, &models.TaskPatch{Title: strPtr("stolen")})
	if err != ErrNotFound {
		t.Errorf("cross-tenant update err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTracksChangedFields(t *testing.T) {
	svc, _, rec := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "old title"})

	updated, err := svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		Title:  strPtr("new title"),
		Status: statusPtr(models.StatusInProgress),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "new title" || updated.Status != models.StatusInProgress {
		t.Errorf("updated = %+v", updated)
	}
	events := rec.ofType(models.EventTaskUpdated)
	if len(events) != 1 {
		t.Fatalf("task:updated events = %d, want 1", len(events))
	}
	changes := map[string]bool{}
	for _, ch := range events[0].Changes {
		changes[ch] = true
	}
	if !changes["title"] || !changes["status"] || len(changes) != 2 {
		t.Errorf("changes = %v, want [title status]", events[0].Changes)
	}
}

func TestUpdateReminderInvariants(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x"})

	enabled := true
	_, err := svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		ReminderEnabled: &enabled,
	})
	if !IsValidation(err) {
		t.Errorf("enabling reminder without time: err = %v, want ValidationError", err)
	}

	remTime := testNow.Add(time.Hour)
	_, err = svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		ReminderEnabled:     &enabled,
		ReminderTime:        &remTime,
		ReminderChannels:    nil,
		ReminderChannelsSet: true,
	})
	if !IsValidation(err) {
		t.Errorf("enabling reminder with empty channels: err = %v, want ValidationError", err)
	}

	_, err = svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		ReminderEnabled:     &enabled,
		ReminderTime:        &remTime,
		ReminderChannels:    []models.ReminderChannel{models.ChannelEmail},
		ReminderChannelsSet: true,
	})
	if err != nil {
		t.Errorf("valid reminder patch: %v", err)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc, _, rec := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x"})

	first, err := svc.Complete(context.Background(), "co-1", created.ID)
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	if first.Status != models.StatusCompleted || first.CompletedAt == nil {
		t.Fatalf("first = %+v, want completed with completed_at", first)
	}

	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	second, err := svc.Complete(context.Background(), "co-1", created.ID)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at re-bumped: %v != %v", second.CompletedAt, first.CompletedAt)
	}
	if got := rec.ofType(models.EventTaskCompleted); len(got) != 1 {
		t.Errorf("task:completed events = %d, want 1 (only the real transition)", len(got))
	}
}

func TestCompletedAtConsistency(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x"})

	// Completing via a plain status patch also sets completed_at.
	updated, err := svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		Status: statusPtr(models.StatusCompleted),
	})
	if err != nil {
		t.Fatalf("Update to COMPLETED: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Fatal("completed_at not set on status patch")
	}

	// Reopening clears it.
	reopened, err := svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		Status: statusPtr(models.StatusInProgress),
	})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Errorf("completed_at = %v after reopen, want nil", reopened.CompletedAt)
	}

	stored, _ := repo.FindByID(context.Background(), "co-1", created.ID)
	if (stored.Status == models.StatusCompleted) != (stored.CompletedAt != nil) {
		t.Errorf("invariant broken: status=%s completed_at=%v", stored.Status, stored.CompletedAt)
	}
}

func TestDeleteEmitsEventAndIsTenantScoped(t *testing.T) {
	svc, repo, rec := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x"})

	if err := svc.Delete(context.Background(), "co-2", created.ID); err != ErrNotFound {
		t.Errorf("cross-tenant delete err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), "co-1", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.FindByID(context.Background(), "co-1", created.ID); got != nil {
		t.Error("task still present after delete")
	}
	events := rec.ofType(models.EventTaskDeleted)
	if len(events) != 1 || events[0].TaskID != created.ID || events[0].CompanyID != "co-1" {
		t.Errorf("task:deleted events = %+v", events)
	}
	if err := svc.Delete(context.Background(), "co-1", created.ID); err != ErrNotFound {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestUpdatedAtNeverBehindCreatedAt(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := mustCreate(t, svc, &models.Task{CompanyID: "co-1", CreatedBy: "u", Title: "x"})

	svc.now = func() time.Time { return testNow.Add(time.Minute) }
	updated, err := svc.Update(context.Background(), "co-1", created.ID, &models.TaskPatch{
		Description: strPtr("more detail"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Errorf("updated_at %v < created_at %v", updated.UpdatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updated_at not bumped: %v", updated.UpdatedAt)
	}
}
