// internal/services/notification_dispatcher.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

// ChannelSender delivers one reminder over one channel. Implementations
// return errors wrapped with Permanent when retrying cannot help.
type ChannelSender interface {
	Channel() models.ReminderChannel
	Send(ctx context.Context, contact repositories.UserContact, task *models.Task) error
}

// NotificationDispatcher fans a claimed reminder out to every channel of
// the task. Channels fail independently; the claim is never rolled back no
// matter the outcomes.
type NotificationDispatcher struct {
	senders   map[models.ReminderChannel]ChannelSender
	directory repositories.UserDirectory
	events    EventPublisher

	maxAttempts int
	baseBackoff time.Duration
}

func NewNotificationDispatcher(directory repositories.UserDirectory, events EventPublisher, senders ...ChannelSender) *NotificationDispatcher {
	byChannel := make(map[models.ReminderChannel]ChannelSender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &NotificationDispatcher{
		senders:     byChannel,
		directory:   directory,
		events:      events,
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
}

// Dispatch attempts every channel of the task's reminder and returns the
// per-channel outcome map (nil entry = delivered). It always emits exactly
// one task:reminder event.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, task *models.Task) map[models.ReminderChannel]error {
	channels := task.ReminderChannels
	if len(channels) == 0 {
		channels = []models.ReminderChannel{models.ChannelInApp}
	}

	var contact repositories.UserContact
	if task.AssignedTo != "" && d.directory != nil {
		c, err := d.directory.Contact(ctx, task.CompanyID, task.AssignedTo)
		if err != nil {
			log.Printf("[dispatch][warn] contact lookup failed: task=%s assignee=%s err=%v", task.ID, task.AssignedTo, err)
		} else {
			contact = c
		}
	}

	outcomes := make(map[models.ReminderChannel]error, len(channels))
	for _, ch := range channels {
		sender, ok := d.senders[ch]
		if !ok {
			outcomes[ch] = Permanent(fmt.Errorf("no adapter for channel %s", ch))
			log.Printf("[dispatch][err] task=%s channel=%s: no adapter", task.ID, ch)
			continue
		}
		err := d.sendWithRetry(ctx, sender, contact, task)
		outcomes[ch] = err
		if err != nil {
			log.Printf("[dispatch][err] task=%s channel=%s: %v", task.ID, ch, err)
		} else {
			log.Printf("[dispatch][ok] task=%s channel=%s", task.ID, ch)
		}
	}

	if d.events != nil {
		d.events.Publish(task.CompanyID, models.TaskEvent{
			Type:             models.EventTaskReminder,
			CompanyID:        task.CompanyID,
			TaskID:           task.ID,
			Task:             task,
			ReminderChannels: channels,
			EmittedAt:        time.Now(),
		})
	}
	return outcomes
}

func (d *NotificationDispatcher) sendWithRetry(ctx context.Context, sender ChannelSender, contact repositories.UserContact, task *models.Task) error {
	delay := d.baseBackoff
	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err = sender.Send(ctx, contact, task)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
		if attempt == d.maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
