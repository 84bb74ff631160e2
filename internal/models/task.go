// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusCancelled  TaskStatus = "CANCELLED"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

type TaskType string

const (
	TypeGeneral  TaskType = "GENERAL"
	TypeFollowUp TaskType = "FOLLOW_UP"
	TypeCall     TaskType = "CALL"
	TypeEmail    TaskType = "EMAIL"
	TypeMeeting  TaskType = "MEETING"
	TypeWhatsApp TaskType = "WHATSAPP"
	TypeProposal TaskType = "PROPOSAL"
	TypeVisit    TaskType = "VISIT"
)

// ReminderChannel is one delivery channel for a task reminder.
type ReminderChannel string

const (
	ChannelInApp    ReminderChannel = "IN_APP"
	ChannelEmail    ReminderChannel = "EMAIL"
	ChannelWhatsApp ReminderChannel = "WHATSAPP"
)

// Task represents a company-scoped task with its reminder sub-state.
// Empty string reference fields mean "not set".
type Task struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Status   TaskStatus   `json:"status"`
	Priority TaskPriority `json:"priority"`
	Type     TaskType     `json:"type"`

	DueDate    *time.Time `json:"due_date,omitempty"`
	AssignedTo string     `json:"assigned_to,omitempty"`
	CreatedBy  string     `json:"created_by"`

	RelatedLeadID     string `json:"related_lead_id,omitempty"`
	RelatedCustomerID string `json:"related_customer_id,omitempty"`
	RelatedChatID     string `json:"related_chat_id,omitempty"`
	RelatedEventID    string `json:"related_event_id,omitempty"`
	KanbanColumnID    string `json:"kanban_column_id,omitempty"`

	ReminderEnabled  bool              `json:"reminder_enabled"`
	ReminderTime     *time.Time        `json:"reminder_time,omitempty"`
	ReminderChannels []ReminderChannel `json:"reminder_channels,omitempty"`
	ReminderSent     bool              `json:"reminder_sent"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RelationKind tags the primary CRM entity a task points at.
type RelationKind string

const (
	RelationNone     RelationKind = ""
	RelationLead     RelationKind = "lead"
	RelationCustomer RelationKind = "customer"
)

type Relation struct {
	Kind RelationKind
	ID   string
}

// PrimaryRelation resolves the lead/customer pair into a single tagged
// relation. When both ids are set the customer wins; callers must not
// re-implement this precedence.
func (t *Task) PrimaryRelation() Relation {
	if t.RelatedCustomerID != "" {
		return Relation{Kind: RelationCustomer, ID: t.RelatedCustomerID}
	}
	if t.RelatedLeadID != "" {
		return Relation{Kind: RelationLead, ID: t.RelatedLeadID}
	}
	return Relation{}
}

// HasChannel reports whether the reminder targets the given channel.
func (t *Task) HasChannel(ch ReminderChannel) bool {
	for _, c := range t.ReminderChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// TaskFilter defines the available parameters for filtering tasks.
// All set fields narrow the result jointly (AND semantics).
type TaskFilter struct {
	Status     []TaskStatus
	Priority   []TaskPriority
	Type       []TaskType
	AssignedTo []string
	CreatedBy  string

	RelatedLeadID     string
	RelatedCustomerID string
	RelatedChatID     string
	KanbanColumnID    string

	Overdue     bool
	DueToday    bool
	DueThisWeek bool

	DateFrom *time.Time
	DateTo   *time.Time

	Search string

	Limit  int
	Offset int
}

// TaskStats aggregates counts over a (possibly filtered) task set.
type TaskStats struct {
	Total       int                  `json:"total"`
	ByStatus    map[TaskStatus]int   `json:"by_status"`
	ByPriority  map[TaskPriority]int `json:"by_priority"`
	ByType      map[TaskType]int     `json:"by_type"`
	ByAssignee  map[string]int       `json:"by_assignee"`
	Overdue     int                  `json:"overdue"`
	DueToday    int                  `json:"due_today"`
	DueThisWeek int                  `json:"due_this_week"`
}

// DueStatus is the derived read-time classification used by the kanban and
// calendar projections (overdue = red, due_today = amber, completed = green).
type DueStatus string

const (
	DueCompleted DueStatus = "completed"
	DueOverdue   DueStatus = "overdue"
	DueToday     DueStatus = "due_today"
	DueThisWeek  DueStatus = "due_this_week"
	DueUpcoming  DueStatus = "upcoming"
)
