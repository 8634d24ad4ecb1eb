package dto

import "github.com/google/uuid"

type EventResponse struct {
	ID             uuid.UUID  `json:"id"`
	CameraID       string     `json:"camera_id"`
	SceneID        *uuid.UUID `json:"scene_id,omitempty"`
	RuleID         string     `json:"rule_id,omitempty"`
	EventType      string     `json:"event_type"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt string     `json:"acknowledged_at,omitempty"`
	Response       string     `json:"response,omitempty"`
	SnapshotURL    string     `json:"snapshot_url,omitempty"`
	CreatedAt      string     `json:"created_at"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// EventQuery is the query-string shape of GET /v1/events.
type EventQuery struct {
	UserID string `form:"user_id"`
	From   string `form:"from"`
	Limit  int    `form:"limit,default=50"`
	Offset int    `form:"offset"`
}

type AcknowledgeRequest struct {
	Response string `json:"response"`
}

// WSEvent is a WebSocket message for real-time alert delivery.
type WSEvent struct {
	Type     string        `json:"type"` // alert_fired, alert_acknowledged
	CameraID string        `json:"camera_id"`
	Data     EventResponse `json:"data,omitempty"`
}
