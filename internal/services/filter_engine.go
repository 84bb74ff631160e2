// internal/services/filter_engine.go
//
// Pure read-time projections over a task set. Nothing here is persisted;
// every classification is recomputed against the caller-supplied "now" so
// the behavior is deterministic under test.
package services

import (
	"strings"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

// ApplyFilter narrows tasks to those matching every set field of the filter
// (AND semantics). Paging is the caller's concern.
func ApplyFilter(tasks []models.Task, f models.TaskFilter, now time.Time) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if matchesFilter(&t, f, now) {
			out = append(out, t)
		}
	}
	return out
}

func matchesFilter(t *models.Task, f models.TaskFilter, now time.Time) bool {
	if len(f.Status) > 0 && !containsStatus(f.Status, t.Status) {
		return false
	}
	if len(f.Priority) > 0 && !containsPriority(f.Priority, t.Priority) {
		return false
	}
	if len(f.Type) > 0 && !containsType(f.Type, t.Type) {
		return false
	}
	if len(f.AssignedTo) > 0 && !containsString(f.AssignedTo, t.AssignedTo) {
		return false
	}
	if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
		return false
	}
	if f.RelatedLeadID != "" && t.RelatedLeadID != f.RelatedLeadID {
		return false
	}
	if f.RelatedCustomerID != "" && t.RelatedCustomerID != f.RelatedCustomerID {
		return false
	}
	if f.RelatedChatID != "" && t.RelatedChatID != f.RelatedChatID {
		return false
	}
	if f.KanbanColumnID != "" && t.KanbanColumnID != f.KanbanColumnID {
		return false
	}
	if f.DateFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DateTo)) {
		return false
	}
	if f.Overdue && !IsOverdue(t, now) {
		return false
	}
	if f.DueToday && !IsDueToday(t, now) {
		return false
	}
	if f.DueThisWeek && !IsDueThisWeek(t, now) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

// IsOverdue reports whether the due date has passed and the task is still
// open. Completed and cancelled tasks are never overdue.
func IsOverdue(t *models.Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == models.StatusCompleted || t.Status == models.StatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}

// IsDueToday uses the local calendar day of now, so an evening task does
// not flip to "tomorrow" at UTC midnight.
func IsDueToday(t *models.Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	d := t.DueDate.In(now.Location())
	return d.Year() == now.Year() && d.YearDay() == now.YearDay()
}

// IsDueThisWeek checks the Monday-Sunday window containing now.
func IsDueThisWeek(t *models.Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	start := weekStart(now)
	end := start.AddDate(0, 0, 7)
	d := t.DueDate.In(now.Location())
	return !d.Before(start) && d.Before(end)
}

func weekStart(now time.Time) time.Time {
	// Monday 00:00 local.
	offset := (int(now.Weekday()) + 6) % 7
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -offset)
}

// ComputeDueStatus derives the single classification the kanban/calendar
// views color by.
func ComputeDueStatus(t *models.Task, now time.Time) models.DueStatus {
	switch {
	case t.Status == models.StatusCompleted:
		return models.DueCompleted
	case IsOverdue(t, now):
		return models.DueOverdue
	case IsDueToday(t, now):
		return models.DueToday
	case IsDueThisWeek(t, now):
		return models.DueThisWeek
	default:
		return models.DueUpcoming
	}
}

// ComputeStats aggregates the given set. The per-status counts always sum
// to Total.
func ComputeStats(tasks []models.Task, now time.Time) *models.TaskStats {
	stats := &models.TaskStats{
		ByStatus:   make(map[models.TaskStatus]int),
		ByPriority: make(map[models.TaskPriority]int),
		ByType:     make(map[models.TaskType]int),
		ByAssignee: make(map[string]int),
	}
	for i := range tasks {
		t := &tasks[i]
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		stats.ByType[t.Type]++
		if t.AssignedTo != "" {
			stats.ByAssignee[t.AssignedTo]++
		}
		if IsOverdue(t, now) {
			stats.Overdue++
		}
		if IsDueToday(t, now) {
			stats.DueToday++
		}
		if IsDueThisWeek(t, now) {
			stats.DueThisWeek++
		}
	}
	return stats
}

func containsStatus(list []models.TaskStatus, v models.TaskStatus) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(list []models.TaskPriority, v models.TaskPriority) bool {
	for _, p := range list {
		if p == v {
			return true
		}
	}
	return false
}

func containsType(list []models.TaskType, v models.TaskType) bool {
	for _, t := range list {
		if t == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
