package repositories

import (
	"context"
	"database/sql"
)

// UserContact is what the notification dispatcher needs to know about a
// task assignee. Empty fields mean the channel has no recipient.
type UserContact struct {
	Email string
	Phone string
}

// UserDirectory resolves assignee contact details. The user table itself is
// owned by the auth/onboarding subsystem; this is a read-only view of it.
type UserDirectory interface {
	Contact(ctx context.Context, companyID, userID string) (UserContact, error)
}

type userDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) UserDirectory {
	return &userDirectory{db: db}
}

func (d *userDirectory) Contact(ctx context.Context, companyID, userID string) (UserContact, error) {
	var email, phone sql.NullString
	err := d.db.QueryRowContext(ctx,
		`SELECT email, phone FROM users WHERE id = $1 AND company_id = $2`,
		userID, companyID,
	).Scan(&email, &phone)
	if err == sql.ErrNoRows {
		return UserContact{}, nil
	}
	if err != nil {
		return UserContact{}, err
	}
	return UserContact{Email: email.String, Phone: phone.String}, nil
}
