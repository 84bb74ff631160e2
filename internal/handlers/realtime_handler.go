package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /ws/tasks
//
// Subscribes the connection to the caller's company event stream. The
// client sends nothing meaningful; the read loop only keeps the connection
// alive and answers pings.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	companyID, userID := getTenant(c)
	if companyID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing company"})
		return
	}

	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		log.Printf("[realtime][upgrade][err] company=%s: %v", companyID, err)
		return
	}
	h.hub.Subscribe(companyID, conn)
	log.Printf("[realtime][subscribe] company=%s user=%s", companyID, userID)
	defer func() {
		h.hub.Unsubscribe(companyID, conn)
		_ = conn.Close()
		log.Printf("[realtime][unsubscribe] company=%s user=%s", companyID, userID)
	}()

	for {
		var msg json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
	}
}
