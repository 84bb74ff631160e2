package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

type emailChannel struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailChannel builds the EMAIL reminder adapter on top of SMTP.
func NewEmailChannel(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) ChannelSender {
	return &emailChannel{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (s *emailChannel) Channel() models.ReminderChannel { return models.ChannelEmail }

func (s *emailChannel) Send(ctx context.Context, contact repositories.UserContact, task *models.Task) error {
	if contact.Email == "" {
		return Permanent(errors.New("assignee has no email address"))
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", contact.Email)
	m.SetHeader("Subject", "Task reminder: "+task.Title)

	due := ""
	if task.DueDate != nil {
		due = fmt.Sprintf("<p>Due: %s</p>", task.DueDate.Format("2006-01-02 15:04"))
	}
	body := fmt.Sprintf(`
		<h3>Task reminder</h3>
		<p><strong>%s</strong></p>
		<p>%s</p>
		%s
	`, html.EscapeString(task.Title), html.EscapeString(task.Description), due)

	m.SetBody("text/html", body)

	// SMTP failures are treated as transient; the dispatcher retries them.
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}
	return nil
}
