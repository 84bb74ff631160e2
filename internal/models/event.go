// internal/models/event.go
package models

import "time"

// EventType names a task lifecycle event as delivered over the realtime
// channel.
type EventType string

const (
	EventTaskCreated   EventType = "task:created"
	EventTaskUpdated   EventType = "task:updated"
	EventTaskCompleted EventType = "task:completed"
	EventTaskDeleted   EventType = "task:deleted"
	EventTaskReminder  EventType = "task:reminder"
)

// TaskEvent is the payload fanned out to every subscriber of a company
// channel. Task is present on all event types except task:deleted, which
// carries only the id pair.
type TaskEvent struct {
	Type      EventType `json:"type"`
	CompanyID string    `json:"companyId"`
	TaskID    string    `json:"taskId,omitempty"`
	Task      *Task     `json:"task,omitempty"`

	// Changes lists the fields touched by a task:updated event.
	Changes []string `json:"changes,omitempty"`

	// ReminderChannels is set on task:reminder events.
	ReminderChannels []ReminderChannel `json:"reminder_channels,omitempty"`

	EmittedAt time.Time `json:"emitted_at"`
}
