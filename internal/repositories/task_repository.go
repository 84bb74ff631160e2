package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

// TaskRepository is the single shared mutable resource of the task engine.
// Every method is scoped by company id; an id that exists under another
// tenant behaves exactly like a missing id.
type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, companyID, id string) (*models.Task, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, companyID, id string) (bool, error)

	// ListDueReminders returns tasks whose reminder is armed, due at or
	// before now and not yet sent, oldest first.
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Task, error)

	// ClaimReminder flips reminder_sent false->true. It reports false when
	// another scheduler instance already won the claim. The flag is never
	// rolled back.
	ClaimReminder(ctx context.Context, companyID, id string) (bool, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, company_id, title, description, status, priority, type,
       due_date, assigned_to, created_by,
       related_lead_id, related_customer_id, related_chat_id, related_event_id, kanban_column_id,
       reminder_enabled, reminder_time, reminder_channels, reminder_sent,
       created_at, updated_at, completed_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			id, company_id, title, description, status, priority, type,
			due_date, assigned_to, created_by,
			related_lead_id, related_customer_id, related_chat_id, related_event_id, kanban_column_id,
			reminder_enabled, reminder_time, reminder_channels, reminder_sent,
			created_at, updated_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.CompanyID, task.Title, nullStr(task.Description),
		task.Status, task.Priority, task.Type,
		task.DueDate, nullStr(task.AssignedTo), task.CreatedBy,
		nullStr(task.RelatedLeadID), nullStr(task.RelatedCustomerID),
		nullStr(task.RelatedChatID), nullStr(task.RelatedEventID), nullStr(task.KanbanColumnID),
		task.ReminderEnabled, task.ReminderTime, channelsJSON(task.ReminderChannels), task.ReminderSent,
		task.CreatedAt, task.UpdatedAt, task.CompletedAt,
	)
	return err
}

func (r *taskRepository) FindByID(ctx context.Context, companyID, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND company_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, companyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE company_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, description=$2, status=$3, priority=$4, type=$5,
			due_date=$6, assigned_to=$7,
			related_lead_id=$8, related_customer_id=$9, related_chat_id=$10,
			related_event_id=$11, kanban_column_id=$12,
			reminder_enabled=$13, reminder_time=$14, reminder_channels=$15,
			updated_at=$16, completed_at=$17
		WHERE id=$18 AND company_id=$19`
	_, err := r.db.ExecContext(ctx, query,
		task.Title, nullStr(task.Description), task.Status, task.Priority, task.Type,
		task.DueDate, nullStr(task.AssignedTo),
		nullStr(task.RelatedLeadID), nullStr(task.RelatedCustomerID), nullStr(task.RelatedChatID),
		nullStr(task.RelatedEventID), nullStr(task.KanbanColumnID),
		task.ReminderEnabled, task.ReminderTime, channelsJSON(task.ReminderChannels),
		task.UpdatedAt, task.CompletedAt,
		task.ID, task.CompanyID,
	)
	return err
}

func (r *taskRepository) Delete(ctx context.Context, companyID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *taskRepository) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + `
FROM tasks
WHERE reminder_enabled = TRUE
  AND reminder_sent = FALSE
  AND reminder_time IS NOT NULL
  AND reminder_time <= $1
ORDER BY reminder_time ASC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *taskRepository) ClaimReminder(ctx context.Context, companyID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET reminder_sent = TRUE, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND reminder_sent = FALSE`, id, companyID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		assignedTo  sql.NullString
		leadID      sql.NullString
		customerID  sql.NullString
		chatID      sql.NullString
		eventID     sql.NullString
		columnID    sql.NullString
		channels    []byte
	)
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.Title, &description, &t.Status, &t.Priority, &t.Type,
		&t.DueDate, &assignedTo, &t.CreatedBy,
		&leadID, &customerID, &chatID, &eventID, &columnID,
		&t.ReminderEnabled, &t.ReminderTime, &channels, &t.ReminderSent,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.AssignedTo = assignedTo.String
	t.RelatedLeadID = leadID.String
	t.RelatedCustomerID = customerID.String
	t.RelatedChatID = chatID.String
	t.RelatedEventID = eventID.String
	t.KanbanColumnID = columnID.String
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &t.ReminderChannels); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func channelsJSON(channels []models.ReminderChannel) []byte {
	if len(channels) == 0 {
		return []byte("[]")
	}
	b, _ := json.Marshal(channels)
	return b
}
