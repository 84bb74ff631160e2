package realtime

import (
	"testing"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

var reconBase = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func taskAt(id, title string, updated time.Time) models.Task {
	return models.Task{
		ID:        id,
		CompanyID: "co-1",
		Title:     title,
		Status:    models.StatusPending,
		CreatedAt: reconBase.Add(-time.Hour),
		UpdatedAt: updated,
	}
}

func TestApplyEventDiscardsStaleUpdate(t *testing.T) {
	r := NewReconciler()
	newer := taskAt("t1", "fresh title", reconBase)
	r.ApplySnapshot([]models.Task{newer})

	stale := taskAt("t1", "old title", reconBase.Add(-time.Minute))
	applied := r.ApplyEvent(models.TaskEvent{
		Type: models.EventTaskUpdated, TaskID: "t1", Task: &stale,
	})
	if applied {
		t.Error("stale event reported as applied")
	}
	got, _ := r.Get("t1")
	if got.Title != "fresh title" {
		t.Errorf("title = %q, want local copy kept", got.Title)
	}
}

func TestApplyEventAcceptsNewerUpdate(t *testing.T) {
	r := NewReconciler()
	r.ApplySnapshot([]models.Task{taskAt("t1", "old title", reconBase.Add(-time.Minute))})

	fresh := taskAt("t1", "new title", reconBase)
	if !r.ApplyEvent(models.TaskEvent{Type: models.EventTaskUpdated, TaskID: "t1", Task: &fresh}) {
		t.Fatal("newer event not applied")
	}
	got, _ := r.Get("t1")
	if got.Title != "new title" {
		t.Errorf("title = %q, want event copy", got.Title)
	}
}

func TestApplyEventDeleteRemovesTask(t *testing.T) {
	r := NewReconciler()
	r.ApplySnapshot([]models.Task{taskAt("t1", "doomed", reconBase)})

	if !r.ApplyEvent(models.TaskEvent{Type: models.EventTaskDeleted, TaskID: "t1"}) {
		t.Fatal("delete not applied")
	}
	if _, ok := r.Get("t1"); ok {
		t.Error("task still present after delete event")
	}
	// Deleting again is a no-op.
	if r.ApplyEvent(models.TaskEvent{Type: models.EventTaskDeleted, TaskID: "t1"}) {
		t.Error("second delete reported as applied")
	}
}

func TestSnapshotKeepsTasksOutsideThePage(t *testing.T) {
	r := NewReconciler()
	r.ApplySnapshot([]models.Task{
		taskAt("t1", "one", reconBase),
		taskAt("t2", "two", reconBase),
	})
	// A narrower page only mentions t1; t2 must survive.
	r.ApplySnapshot([]models.Task{taskAt("t1", "one v2", reconBase.Add(time.Minute))})

	if _, ok := r.Get("t2"); !ok {
		t.Error("t2 dropped by partial snapshot")
	}
	got, _ := r.Get("t1")
	if got.Title != "one v2" {
		t.Errorf("t1 title = %q, want merged page copy", got.Title)
	}
}

func TestSnapshotDoesNotRollBackNewerEventState(t *testing.T) {
	r := NewReconciler()
	fresh := taskAt("t1", "from event", reconBase)
	r.ApplyEvent(models.TaskEvent{Type: models.EventTaskCreated, TaskID: "t1", Task: &fresh})

	// An older REST snapshot races in afterwards.
	r.ApplySnapshot([]models.Task{taskAt("t1", "from stale fetch", reconBase.Add(-time.Minute))})

	got, _ := r.Get("t1")
	if got.Title != "from event" {
		t.Errorf("title = %q, want event state kept", got.Title)
	}
}

func TestTasksOrderedNewestFirst(t *testing.T) {
	r := NewReconciler()
	older := taskAt("t1", "older", reconBase)
	older.CreatedAt = reconBase.Add(-2 * time.Hour)
	newer := taskAt("t2", "newer", reconBase)
	newer.CreatedAt = reconBase.Add(-time.Hour)
	r.ApplySnapshot([]models.Task{older, newer})

	out := r.Tasks()
	if len(out) != 2 || out[0].ID != "t2" || out[1].ID != "t1" {
		t.Errorf("order = %v, want [t2 t1]", []string{out[0].ID, out[1].ID})
	}
}
