package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

// inAppChannel drops a reminder into the persisted notification inbox. The
// realtime task:reminder event itself is emitted by the dispatcher, so
// connected clients see the reminder even before the inbox is polled.
type inAppChannel struct {
	inbox repositories.NotificationRepository
}

func NewInAppChannel(inbox repositories.NotificationRepository) ChannelSender {
	return &inAppChannel{inbox: inbox}
}

func (s *inAppChannel) Channel() models.ReminderChannel { return models.ChannelInApp }

func (s *inAppChannel) Send(ctx context.Context, contact repositories.UserContact, task *models.Task) error {
	if task.AssignedTo == "" {
		return Permanent(errors.New("task has no assignee for in-app notification"))
	}
	n := &models.Notification{
		ID:        uuid.NewString(),
		CompanyID: task.CompanyID,
		UserID:    task.AssignedTo,
		Type:      "TASK_DUE_SOON",
		Title:     "Task reminder",
		Message:   fmt.Sprintf("Task %q is due soon.", task.Title),
		Data:      map[string]string{"taskId": task.ID},
		CreatedAt: time.Now(),
	}
	return s.inbox.Store(ctx, n)
}
