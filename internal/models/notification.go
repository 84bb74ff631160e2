// internal/models/notification.go
package models

import "time"

// Notification is one row of the in-app inbox. The IN_APP reminder channel
// writes these; the inbox UI consumes them over its own REST surface.
type Notification struct {
	ID        string            `json:"id"`
	CompanyID string            `json:"company_id"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
