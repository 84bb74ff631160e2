// internal/services/task_service.go
package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

// EventPublisher fans a lifecycle event out to the company's subscribers.
// Publishing happens strictly after the mutation is durable.
type EventPublisher interface {
	Publish(companyID string, ev models.TaskEvent)
}

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, companyID, id string) (*models.Task, error)
	List(ctx context.Context, companyID string, filter models.TaskFilter) ([]models.Task, int, error)
	Stats(ctx context.Context, companyID string, filter models.TaskFilter) (*models.TaskStats, error)
	Update(ctx context.Context, companyID, id string, patch *models.TaskPatch) (*models.Task, error)
	Complete(ctx context.Context, companyID, id string) (*models.Task, error)
	Delete(ctx context.Context, companyID, id string) error
}

type taskService struct {
	repo   repositories.TaskRepository
	events EventPublisher
	now    func() time.Time
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository, events EventPublisher) TaskService {
	return &taskService{repo: repo, events: events, now: time.Now}
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, invalid("title", "must not be empty")
	}
	if task.CompanyID == "" {
		return nil, invalid("company_id", "missing tenant")
	}
	if task.CreatedBy == "" {
		return nil, invalid("created_by", "missing creator")
	}

	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Type == "" {
		task.Type = models.TypeGeneral
	}
	if err := validateEnums(task.Status, task.Priority, task.Type); err != nil {
		return nil, err
	}

	// Customer takes precedence over lead; a task carries one primary
	// relation even though the wire format has two fields.
	if task.RelatedCustomerID != "" && task.RelatedLeadID != "" {
		task.RelatedLeadID = ""
	}

	if task.ReminderEnabled {
		if task.ReminderTime == nil {
			return nil, invalid("reminder_time", "required when reminder is enabled")
		}
		if len(task.ReminderChannels) == 0 {
			task.ReminderChannels = []models.ReminderChannel{models.ChannelInApp}
		}
		if err := validateChannels(task.ReminderChannels); err != nil {
			return nil, err
		}
	}
	task.ReminderSent = false

	now := s.now()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == models.StatusCompleted {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	s.emit(task.CompanyID, models.TaskEvent{
		Type:   models.EventTaskCreated,
		TaskID: task.ID,
		Task:   task,
	})
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, companyID, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, companyID string, filter models.TaskFilter) ([]models.Task, int, error) {
	tasks, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, 0, err
	}
	matched := ApplyFilter(tasks, filter, s.now())
	total := len(matched)
	return paginate(matched, filter.Limit, filter.Offset), total, nil
}

func (s *taskService) Stats(ctx context.Context, companyID string, filter models.TaskFilter) (*models.TaskStats, error) {
	tasks, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	// Stats cover the whole filtered set, paging does not apply.
	return ComputeStats(ApplyFilter(tasks, filter, s.now()), s.now()), nil
}

func (s *taskService) Update(ctx context.Context, companyID, id string, patch *models.TaskPatch) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}

	updated := *current
	var changes []string
	touch := func(field string) { changes = append(changes, field) }

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title", "must not be empty")
		}
		if title != updated.Title {
			updated.Title = title
			touch("title")
		}
	}
	if patch.Description != nil && *patch.Description != updated.Description {
		updated.Description = *patch.Description
		touch("description")
	}
	if patch.Priority != nil && *patch.Priority != updated.Priority {
		if !validPriority(*patch.Priority) {
			return nil, invalid("priority", "unknown value")
		}
		updated.Priority = *patch.Priority
		touch("priority")
	}
	if patch.Type != nil && *patch.Type != updated.Type {
		if !validType(*patch.Type) {
			return nil, invalid("type", "unknown value")
		}
		updated.Type = *patch.Type
		touch("type")
	}
	if patch.AssignedTo != nil && *patch.AssignedTo != updated.AssignedTo {
		updated.AssignedTo = *patch.AssignedTo
		touch("assigned_to")
	}
	if patch.ClearDueDate {
		if updated.DueDate != nil {
			updated.DueDate = nil
			touch("due_date")
		}
	} else if patch.DueDate != nil {
		if updated.DueDate == nil || !patch.DueDate.Equal(*updated.DueDate) {
			d := *patch.DueDate
			updated.DueDate = &d
			touch("due_date")
		}
	}

	for _, ref := range []struct {
		val   *string
		dst   *string
		field string
	}{
		{patch.RelatedLeadID, &updated.RelatedLeadID, "related_lead_id"},
		{patch.RelatedCustomerID, &updated.RelatedCustomerID, "related_customer_id"},
		{patch.RelatedChatID, &updated.RelatedChatID, "related_chat_id"},
		{patch.RelatedEventID, &updated.RelatedEventID, "related_event_id"},
		{patch.KanbanColumnID, &updated.KanbanColumnID, "kanban_column_id"},
	} {
		if ref.val != nil && *ref.val != *ref.dst {
			*ref.dst = *ref.val
			touch(ref.field)
		}
	}
	if updated.RelatedCustomerID != "" && updated.RelatedLeadID != "" {
		updated.RelatedLeadID = ""
	}

	now := s.now()
	if patch.Status != nil && *patch.Status != updated.Status {
		if !validStatus(*patch.Status) {
			return nil, invalid("status", "unknown value")
		}
		from := updated.Status
		updated.Status = *patch.Status
		touch("status")
		if updated.Status == models.StatusCompleted {
			updated.CompletedAt = &now
		} else if from == models.StatusCompleted {
			// Reopening clears completed_at so the invariant stays two-way.
			updated.CompletedAt = nil
		}
	}

	if patch.ReminderEnabled != nil && *patch.ReminderEnabled != updated.ReminderEnabled {
		updated.ReminderEnabled = *patch.ReminderEnabled
		touch("reminder_enabled")
	}
	if patch.ClearReminderTime {
		if updated.ReminderTime != nil {
			updated.ReminderTime = nil
			touch("reminder_time")
		}
	} else if patch.ReminderTime != nil {
		if updated.ReminderTime == nil || !patch.ReminderTime.Equal(*updated.ReminderTime) {
			d := *patch.ReminderTime
			updated.ReminderTime = &d
			touch("reminder_time")
		}
	}
	if patch.ReminderChannelsSet {
		updated.ReminderChannels = patch.ReminderChannels
		touch("reminder_channels")
	}
	if patch.TouchesReminder() && updated.ReminderEnabled {
		if updated.ReminderTime == nil {
			return nil, invalid("reminder_time", "required when reminder is enabled")
		}
		if len(updated.ReminderChannels) == 0 {
			return nil, invalid("reminder_channels", "must not be empty when reminder is enabled")
		}
		if err := validateChannels(updated.ReminderChannels); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = now
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.emit(companyID, models.TaskEvent{
		Type:    models.EventTaskUpdated,
		TaskID:  updated.ID,
		Task:    &updated,
		Changes: changes,
	})
	return &updated, nil
}

func (s *taskService) Complete(ctx context.Context, companyID, id string) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if current.Status == models.StatusCompleted {
		// Idempotent: no write, no event, completed_at untouched.
		return current, nil
	}

	now := s.now()
	current.Status = models.StatusCompleted
	current.CompletedAt = &now
	current.UpdatedAt = now
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	s.emit(companyID, models.TaskEvent{
		Type:   models.EventTaskCompleted,
		TaskID: current.ID,
		Task:   current,
	})
	return current, nil
}

func (s *taskService) Delete(ctx context.Context, companyID, id string) error {
	ok, err := s.repo.Delete(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.emit(companyID, models.TaskEvent{
		Type:   models.EventTaskDeleted,
		TaskID: id,
	})
	return nil
}

func (s *taskService) emit(companyID string, ev models.TaskEvent) {
	if s.events == nil {
		return
	}
	ev.CompanyID = companyID
	ev.EmittedAt = s.now()
	s.events.Publish(companyID, ev)
	log.Printf("[task][emit] company=%s type=%s task=%s", companyID, ev.Type, ev.TaskID)
}

func paginate(tasks []models.Task, limit, offset int) []models.Task {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tasks) {
		return nil
	}
	tasks = tasks[offset:]
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks
}

func validStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled:
		return true
	}
	return false
}

func validPriority(p models.TaskPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}

func validType(t models.TaskType) bool {
	switch t {
	case models.TypeGeneral, models.TypeFollowUp, models.TypeCall, models.TypeEmail,
		models.TypeMeeting, models.TypeWhatsApp, models.TypeProposal, models.TypeVisit:
		return true
	}
	return false
}

func validateEnums(st models.TaskStatus, pr models.TaskPriority, ty models.TaskType) error {
	if !validStatus(st) {
		return invalid("status", "unknown value")
	}
	if !validPriority(pr) {
		return invalid("priority", "unknown value")
	}
	if !validType(ty) {
		return invalid("type", "unknown value")
	}
	return nil
}

func validateChannels(channels []models.ReminderChannel) error {
	for _, ch := range channels {
		switch ch {
		case models.ChannelInApp, models.ChannelEmail, models.ChannelWhatsApp:
		default:
			return invalid("reminder_channels", "unknown channel "+string(ch))
		}
	}
	return nil
}
