package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/storage"
	"github.com/your-org/homewatch/pkg/dto"
)

type EventHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewEventHandler(db *storage.PostgresStore, minio *storage.MinIOStore) *EventHandler {
	return &EventHandler{db: db, minio: minio}
}

func (h *EventHandler) List(c *gin.Context) {
	var q dto.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := uuid.Parse(q.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing user_id"})
		return
	}

	var since *time.Time
	if q.From != "" {
		if t, err := time.Parse(time.RFC3339, q.From); err == nil {
			since = &t
		}
	}

	events, total, err := h.db.QueryEvents(c.Request.Context(), userID, since, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, toEventResponse(&ev))
	}

	c.JSON(http.StatusOK, dto.EventListResponse{Events: resp, Total: total})
}

func (h *EventHandler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ev, err := h.db.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, toEventResponse(ev))
}

// Acknowledge marks an event as handled and records the user's response.
func (h *EventHandler) Acknowledge(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req dto.AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Response == "" {
		req.Response = "acknowledged"
	}

	if err := h.db.AcknowledgeEvent(c.Request.Context(), eventID, req.Response); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// Snapshot proxies the scene snapshot image from MinIO for the event's scene.
func (h *EventHandler) Snapshot(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ev, err := h.db.GetEvent(c.Request.Context(), eventID)
	if err != nil || ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if ev.SceneID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event has no scene"})
		return
	}

	scene, err := h.db.GetScene(c.Request.Context(), *ev.SceneID)
	if err != nil || scene == nil || scene.SnapshotKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	data, err := h.minio.GetObject(c.Request.Context(), scene.SnapshotKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func toEventResponse(ev *models.Event) dto.EventResponse {
	r := dto.EventResponse{
		ID:           ev.ID,
		CameraID:     ev.CameraID,
		SceneID:      ev.SceneID,
		RuleID:       ev.RuleID,
		EventType:    ev.EventType,
		Severity:     string(ev.Severity),
		Title:        ev.Title,
		Description:  ev.Description,
		Acknowledged: ev.Acknowledged,
		Response:     ev.Response,
		CreatedAt:    ev.CreatedAt.Format(time.RFC3339),
	}
	if ev.AcknowledgedAt != nil {
		r.AcknowledgedAt = ev.AcknowledgedAt.Format(time.RFC3339)
	}
	if ev.SceneID != nil {
		r.SnapshotURL = "/v1/events/" + ev.ID.String() + "/snapshot"
	}
	return r
}
