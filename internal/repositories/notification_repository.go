package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

// NotificationRepository persists in-app inbox rows.
type NotificationRepository interface {
	Store(ctx context.Context, n *models.Notification) error
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Store(ctx context.Context, n *models.Notification) error {
	data := []byte("{}")
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return err
		}
		data = b
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, company_id, user_id, type, title, message, data, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		n.ID, n.CompanyID, n.UserID, n.Type, n.Title, n.Message, data, n.Read, n.CreatedAt,
	)
	return err
}

// MemoryNotificationRepository backs dev mode and tests.
type MemoryNotificationRepository struct {
	mu   sync.Mutex
	rows []models.Notification
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

func (r *MemoryNotificationRepository) Store(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *n)
	return nil
}

// All returns a snapshot of the stored rows.
func (r *MemoryNotificationRepository) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.rows...)
}
