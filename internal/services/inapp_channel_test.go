package services

import (
	"context"
	"testing"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

func TestInAppChannelWritesInboxRow(t *testing.T) {
	inbox := repositories.NewMemoryNotificationRepository()
	ch := NewInAppChannel(inbox)

	task := reminderTask(models.ChannelInApp)
	if err := ch.Send(context.Background(), repositories.UserContact{}, task); err != nil {
		t.Fatalf("Send: %v", err)
	}

	rows := inbox.All()
	if len(rows) != 1 {
		t.Fatalf("inbox rows = %d, want 1", len(rows))
	}
	n := rows[0]
	if n.UserID != task.AssignedTo || n.CompanyID != task.CompanyID {
		t.Errorf("row addressed to %s/%s, want %s/%s", n.CompanyID, n.UserID, task.CompanyID, task.AssignedTo)
	}
	if n.Type != "TASK_DUE_SOON" {
		t.Errorf("type = %q", n.Type)
	}
	if n.Data["taskId"] != task.ID {
		t.Errorf("data = %v, want taskId link", n.Data)
	}
}

func TestInAppChannelRequiresAssignee(t *testing.T) {
	inbox := repositories.NewMemoryNotificationRepository()
	ch := NewInAppChannel(inbox)

	task := reminderTask(models.ChannelInApp)
	task.AssignedTo = ""
	err := ch.Send(context.Background(), repositories.UserContact{}, task)
	if !IsPermanent(err) {
		t.Errorf("err = %v, want permanent", err)
	}
	if len(inbox.All()) != 0 {
		t.Error("row written despite missing assignee")
	}
}
