// internal/models/patch.go
package models

import "time"

// TaskPatch is a partial update. Nil pointers leave the field untouched;
// empty strings clear optional references. Due date and reminder time need
// explicit clear flags because nil already means "not provided".
type TaskPatch struct {
	Title       *string
	Description *string

	Status   *TaskStatus
	Priority *TaskPriority
	Type     *TaskType

	AssignedTo *string

	DueDate      *time.Time
	ClearDueDate bool

	RelatedLeadID     *string
	RelatedCustomerID *string
	RelatedChatID     *string
	RelatedEventID    *string
	KanbanColumnID    *string

	ReminderEnabled   *bool
	ReminderTime      *time.Time
	ClearReminderTime bool

	// ReminderChannelsSet distinguishes "replace with empty" from "leave".
	ReminderChannels    []ReminderChannel
	ReminderChannelsSet bool
}

// TouchesReminder reports whether any reminder field is part of the patch,
// which forces the reminder invariants to be re-checked.
func (p *TaskPatch) TouchesReminder() bool {
	return p.ReminderEnabled != nil || p.ReminderTime != nil || p.ClearReminderTime || p.ReminderChannelsSet
}
