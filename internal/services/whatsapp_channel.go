package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/repositories"
)

// whatsappChannel talks to a WAHA-style HTTP gateway. The gateway's own
// queueing and provider retries are its concern; this adapter only makes
// the one bounded call.
type whatsappChannel struct {
	baseURL string
	session string
	apiKey  string
	dryRun  bool
	client  *http.Client
}

func NewWhatsAppChannel(baseURL, session, apiKey string, dryRun bool) ChannelSender {
	return &whatsappChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		apiKey:  apiKey,
		dryRun:  dryRun,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *whatsappChannel) Channel() models.ReminderChannel { return models.ChannelWhatsApp }

func (w *whatsappChannel) Send(ctx context.Context, contact repositories.UserContact, task *models.Task) error {
	if contact.Phone == "" {
		return Permanent(errors.New("assignee has no phone number"))
	}

	text := "⏰ *Task reminder*\n\n*" + task.Title + "*"
	if task.Description != "" {
		text += "\n_" + task.Description + "_"
	}
	if task.DueDate != nil {
		text += "\n📅 Due: " + task.DueDate.Format("2006-01-02 15:04")
	}

	chatID := digitsOnly(contact.Phone) + "@c.us"

	// DRY-RUN: no HTTP call.
	if w.dryRun || w.baseURL == "" {
		log.Printf("[whatsapp][dry-run] to=%s text=%q", chatID, text)
		return nil
	}

	body := map[string]any{
		"session": w.session,
		"chatId":  chatID,
		"text":    text,
	}
	b, _ := json.Marshal(body)
	url := w.baseURL + "/api/sendText"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("X-Api-Key", w.apiKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[whatsapp][send] status=%d chatId=%s", resp.StatusCode, chatID)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("whatsapp gateway error: status=%d body=%s", resp.StatusCode, respBody)
	default:
		return Permanent(fmt.Errorf("whatsapp send rejected: status=%d body=%s", resp.StatusCode, respBody))
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
