package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskView attaches the derived due_status classification the kanban and
// calendar views color by. Never persisted.
type taskView struct {
	models.Task
	DueStatus models.DueStatus `json:"due_status"`
}

func viewOf(t models.Task, now time.Time) taskView {
	return taskView{Task: t, DueStatus: services.ComputeDueStatus(&t, now)}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	companyID, userID := getTenant(c)
	log.Printf("[task][create] call company=%s user=%s", companyID, userID)

	var req struct {
		Title             string                   `json:"title" binding:"required"`
		Description       string                   `json:"description"`
		Status            models.TaskStatus        `json:"status"`
		Priority          models.TaskPriority      `json:"priority"`
		Type              models.TaskType          `json:"type"`
		DueDate           string                   `json:"due_date"` // RFC3339
		AssignedTo        string                   `json:"assigned_to"`
		RelatedLeadID     string                   `json:"related_lead_id"`
		RelatedCustomerID string                   `json:"related_customer_id"`
		RelatedChatID     string                   `json:"related_chat_id"`
		RelatedEventID    string                   `json:"related_event_id"`
		KanbanColumnID    string                   `json:"kanban_column_id"`
		ReminderEnabled   bool                     `json:"reminder_enabled"`
		ReminderTime      string                   `json:"reminder_time"` // RFC3339
		ReminderChannels  []models.ReminderChannel `json:"reminder_channels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, ok := parseOptionalTime(c, "due_date", req.DueDate)
	if !ok {
		return
	}
	rem, ok := parseOptionalTime(c, "reminder_time", req.ReminderTime)
	if !ok {
		return
	}

	task := &models.Task{
		CompanyID:         companyID,
		CreatedBy:         userID,
		Title:             req.Title,
		Description:       req.Description,
		Status:            req.Status,
		Priority:          req.Priority,
		Type:              req.Type,
		DueDate:           due,
		AssignedTo:        req.AssignedTo,
		RelatedLeadID:     req.RelatedLeadID,
		RelatedCustomerID: req.RelatedCustomerID,
		RelatedChatID:     req.RelatedChatID,
		RelatedEventID:    req.RelatedEventID,
		KanbanColumnID:    req.KanbanColumnID,
		ReminderEnabled:   req.ReminderEnabled,
		ReminderTime:      rem,
		ReminderChannels:  req.ReminderChannels,
	}

	created, err := h.service.Create(c.Request.Context(), task)
	if err != nil {
		respondTaskError(c, "create", err)
		return
	}
	log.Printf("[task][create][ok] id=%s title=%q", created.ID, created.Title)
	c.JSON(http.StatusCreated, viewOf(*created, time.Now()))
}

// GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	companyID, _ := getTenant(c)
	filter := parseTaskFilter(c)

	tasks, total, err := h.service.List(c.Request.Context(), companyID, filter)
	if err != nil {
		respondTaskError(c, "list", err)
		return
	}
	now := time.Now()
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, viewOf(t, now))
	}
	log.Printf("[task][list][ok] company=%s count=%d total=%d", companyID, len(views), total)
	c.JSON(http.StatusOK, gin.H{
		"tasks":  views,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GET /tasks/stats
func (h *TaskHandler) Stats(c *gin.Context) {
	companyID, _ := getTenant(c)
	filter := parseTaskFilter(c)

	stats, err := h.service.Stats(c.Request.Context(), companyID, filter)
	if err != nil {
		respondTaskError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	companyID, _ := getTenant(c)
	task, err := h.service.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondTaskError(c, "getByID", err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*task, time.Now()))
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	companyID, _ := getTenant(c)
	id := c.Param("id")
	log.Printf("[task][update] call company=%s id=%s", companyID, id)

	var req struct {
		Title             *string                  `json:"title"`
		Description       *string                  `json:"description"`
		Status            *models.TaskStatus       `json:"status"`
		Priority          *models.TaskPriority     `json:"priority"`
		Type              *models.TaskType         `json:"type"`
		DueDate           *string                  `json:"due_date"` // RFC3339, "" clears
		AssignedTo        *string                  `json:"assigned_to"`
		RelatedLeadID     *string                  `json:"related_lead_id"`
		RelatedCustomerID *string                  `json:"related_customer_id"`
		RelatedChatID     *string                  `json:"related_chat_id"`
		RelatedEventID    *string                  `json:"related_event_id"`
		KanbanColumnID    *string                  `json:"kanban_column_id"`
		ReminderEnabled   *bool                    `json:"reminder_enabled"`
		ReminderTime      *string                  `json:"reminder_time"` // RFC3339, "" clears
		ReminderChannels  []models.ReminderChannel `json:"reminder_channels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := &models.TaskPatch{
		Title:             req.Title,
		Description:       req.Description,
		Status:            req.Status,
		Priority:          req.Priority,
		Type:              req.Type,
		AssignedTo:        req.AssignedTo,
		RelatedLeadID:     req.RelatedLeadID,
		RelatedCustomerID: req.RelatedCustomerID,
		RelatedChatID:     req.RelatedChatID,
		RelatedEventID:    req.RelatedEventID,
		KanbanColumnID:    req.KanbanColumnID,
		ReminderEnabled:   req.ReminderEnabled,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			t, ok := parseOptionalTime(c, "due_date", *req.DueDate)
			if !ok {
				return
			}
			patch.DueDate = t
		}
	}
	if req.ReminderTime != nil {
		if *req.ReminderTime == "" {
			patch.ClearReminderTime = true
		} else {
			t, ok := parseOptionalTime(c, "reminder_time", *req.ReminderTime)
			if !ok {
				return
			}
			patch.ReminderTime = t
		}
	}
	if req.ReminderChannels != nil {
		patch.ReminderChannels = req.ReminderChannels
		patch.ReminderChannelsSet = true
	}

	updated, err := h.service.Update(c.Request.Context(), companyID, id, patch)
	if err != nil {
		respondTaskError(c, "update", err)
		return
	}
	log.Printf("[task][update][ok] id=%s", id)
	c.JSON(http.StatusOK, viewOf(*updated, time.Now()))
}

// PATCH /tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	companyID, _ := getTenant(c)
	id := c.Param("id")

	task, err := h.service.Complete(c.Request.Context(), companyID, id)
	if err != nil {
		respondTaskError(c, "complete", err)
		return
	}
	log.Printf("[task][complete][ok] id=%s", id)
	c.JSON(http.StatusOK, viewOf(*task, time.Now()))
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	companyID, _ := getTenant(c)
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), companyID, id); err != nil {
		respondTaskError(c, "delete", err)
		return
	}
	log.Printf("[task][delete][ok] id=%s", id)
	c.Status(http.StatusNoContent)
}

// ---- helpers ----

func parseTaskFilter(c *gin.Context) models.TaskFilter {
	var f models.TaskFilter
	for _, v := range c.QueryArray("status") {
		f.Status = append(f.Status, models.TaskStatus(v))
	}
	for _, v := range c.QueryArray("priority") {
		f.Priority = append(f.Priority, models.TaskPriority(v))
	}
	for _, v := range c.QueryArray("type") {
		f.Type = append(f.Type, models.TaskType(v))
	}
	f.AssignedTo = append(f.AssignedTo, c.QueryArray("assigned_to")...)
	f.CreatedBy = c.Query("created_by")
	f.RelatedLeadID = c.Query("related_lead_id")
	f.RelatedCustomerID = c.Query("related_customer_id")
	f.RelatedChatID = c.Query("related_chat_id")
	f.KanbanColumnID = c.Query("kanban_column_id")
	f.Overdue = c.Query("overdue") == "true"
	f.DueToday = c.Query("due_today") == "true"
	f.DueThisWeek = c.Query("due_this_week") == "true"
	f.Search = c.Query("search")
	if v := c.Query("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateFrom = &t
		} else {
			log.Printf("[task][list][warn] bad date_from=%q: %v", v, err)
		}
	}
	if v := c.Query("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateTo = &t
		} else {
			log.Printf("[task][list][warn] bad date_to=%q: %v", v, err)
		}
	}
	f.Limit = 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	return f
}

func parseOptionalTime(c *gin.Context, field, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("[task][err] invalid %s=%q: %v", field, value, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field + " (RFC3339)"})
		return nil, false
	}
	return &t, true
}

func respondTaskError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		log.Printf("[task][%s][404] %v", op, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case services.IsValidation(err):
		log.Printf("[task][%s][invalid] %v", op, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[task][%s][err] %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
