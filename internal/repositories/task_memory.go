package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

// memoryTaskRepository keeps tasks in a tenant-partitioned map. It backs
// dev mode (no database url configured) and the test suites; the claim has
// the same compare-and-set semantics as the SQL implementation.
type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]map[string]models.Task // companyID -> taskID -> task
}

func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{tasks: make(map[string]map[string]models.Task)}
}

func (r *memoryTaskRepository) Store(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks[task.CompanyID] == nil {
		r.tasks[task.CompanyID] = make(map[string]models.Task)
	}
	r.tasks[task.CompanyID][task.ID] = cloneTask(*task)
	return nil
}

func (r *memoryTaskRepository) FindByID(ctx context.Context, companyID, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[companyID][id]
	if !ok {
		return nil, nil
	}
	c := cloneTask(t)
	return &c, nil
}

func (r *memoryTaskRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Task
	for _, t := range r.tasks[companyID] {
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryTaskRepository) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.CompanyID][task.ID]; !ok {
		return nil
	}
	// reminder_sent is owned by ClaimReminder; keep it monotonic.
	sent := r.tasks[task.CompanyID][task.ID].ReminderSent
	c := cloneTask(*task)
	c.ReminderSent = c.ReminderSent || sent
	r.tasks[task.CompanyID][task.ID] = c
	return nil
}

func (r *memoryTaskRepository) Delete(ctx context.Context, companyID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[companyID][id]; !ok {
		return false, nil
	}
	delete(r.tasks[companyID], id)
	return true, nil
}

func (r *memoryTaskRepository) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Task
	for _, byID := range r.tasks {
		for _, t := range byID {
			if t.ReminderEnabled && !t.ReminderSent && t.ReminderTime != nil && !t.ReminderTime.After(now) {
				out = append(out, cloneTask(t))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReminderTime.Before(*out[j].ReminderTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryTaskRepository) ClaimReminder(ctx context.Context, companyID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[companyID][id]
	if !ok || t.ReminderSent {
		return false, nil
	}
	t.ReminderSent = true
	t.UpdatedAt = time.Now()
	r.tasks[companyID][id] = t
	return true, nil
}

func cloneTask(t models.Task) models.Task {
	if t.ReminderChannels != nil {
		t.ReminderChannels = append([]models.ReminderChannel(nil), t.ReminderChannels...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.ReminderTime != nil {
		d := *t.ReminderTime
		t.ReminderTime = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		t.CompletedAt = &d
	}
	return t
}
