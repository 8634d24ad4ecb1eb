package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a persisted alert occurrence.
type Event struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	CameraID       string     `json:"camera_id" db:"camera_id"`
	SceneID        *uuid.UUID `json:"scene_id,omitempty" db:"scene_id"`
	RuleID         string     `json:"rule_id" db:"rule_id"`
	EventType      string     `json:"event_type" db:"event_type"`
	Severity       Severity   `json:"severity" db:"severity"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description,omitempty" db:"description"`
	Acknowledged   bool       `json:"acknowledged" db:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	Response       string     `json:"response,omitempty" db:"response"` // "viewed", "ignored", "escalated"
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// AlertTask is the message published to NATS when a rule fires, for
// the notification path to deliver.
type AlertTask struct {
	EventID  uuid.UUID `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	ChatID   string    `json:"chat_id"`
	Platform Platform  `json:"platform"`
	CameraID string    `json:"camera_id"`
	RuleID   string    `json:"rule_id"`
	RuleName string    `json:"rule_name"`
	Severity Severity  `json:"severity"`
	Scene    *Scene    `json:"scene,omitempty"`
	FiredAt  time.Time `json:"fired_at"`
}
