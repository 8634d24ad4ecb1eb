package models

import (
	"time"

	"github.com/google/uuid"
)

// DetectedObject is one labelled detection from the camera edge.
// Confidence is in [0, 1].
type DetectedObject struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	BBox       []int   `json:"bbox,omitempty"` // x1, y1, x2, y2
}

// Scene is an immutable snapshot of what a camera observed at one point
// in time. Object order is detection order and carries no meaning.
type Scene struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	CameraID    string           `json:"camera_id" db:"camera_id"`
	Timestamp   time.Time        `json:"timestamp" db:"captured_at"`
	Objects     []DetectedObject `json:"objects" db:"objects"`
	Motion      bool             `json:"motion" db:"motion"`
	MotionScore *float64         `json:"motion_score,omitempty" db:"motion_score"`
	SnapshotKey string           `json:"snapshot_key,omitempty" db:"snapshot_key"`
}

// HasObject reports whether any object of the given type is present,
// regardless of confidence.
func (s *Scene) HasObject(objectType string) bool {
	for _, obj := range s.Objects {
		if obj.Type == objectType {
			return true
		}
	}
	return false
}

// SceneTask is the message published to NATS by the ingestor for
// worker evaluation.
type SceneTask struct {
	CameraID    string           `json:"camera_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Timestamp   time.Time        `json:"timestamp"`
	Objects     []DetectedObject `json:"objects"`
	Motion      bool             `json:"motion"`
	MotionScore *float64         `json:"motion_score,omitempty"`
	SnapshotKey string           `json:"snapshot_key,omitempty"`
}
