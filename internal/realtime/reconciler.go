package realtime

import (
	"sort"
	"sync"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

// Reconciler merges REST-fetched snapshots with realtime events into one
// local task view (the state behind the list, kanban and calendar
// renderers). Events and snapshots may arrive out of order relative to
// each other, so updated_at decides every merge (last-write-wins); arrival
// order is never trusted.
type Reconciler struct {
	mu    sync.Mutex
	tasks map[string]models.Task
}

func NewReconciler() *Reconciler {
	return &Reconciler{tasks: make(map[string]models.Task)}
}

// ApplySnapshot merges a REST list response. Tasks the snapshot knows
// nothing about are kept; a snapshot is a filtered page, not the whole
// world.
func (r *Reconciler) ApplySnapshot(tasks []models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tasks {
		r.mergeLocked(t)
	}
}

// ApplyEvent merges one realtime event and reports whether it changed the
// local view. A stale event (older updated_at than the local copy) is
// discarded.
func (r *Reconciler) ApplyEvent(ev models.TaskEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Type {
	case models.EventTaskDeleted:
		if _, ok := r.tasks[ev.TaskID]; !ok {
			return false
		}
		delete(r.tasks, ev.TaskID)
		return true
	default:
		if ev.Task == nil {
			return false
		}
		return r.mergeLocked(*ev.Task)
	}
}

func (r *Reconciler) mergeLocked(t models.Task) bool {
	if cur, ok := r.tasks[t.ID]; ok && cur.UpdatedAt.After(t.UpdatedAt) {
		return false
	}
	r.tasks[t.ID] = t
	return true
}

// Get returns the local copy of a task, if present.
func (r *Reconciler) Get(id string) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Tasks returns the merged view ordered by creation time, newest first.
func (r *Reconciler) Tasks() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
