package agent

import (
	"context"
	"time"

	"github.com/your-org/homewatch/internal/models"
)

// Clock supplies the current time. Injected so that time-of-day rule
// conditions are testable.
type Clock func() time.Time

// Perception is the camera-side collaborator: it owns scene snapshots
// and produces them for the rest of the pipeline.
type Perception interface {
	GetLatestScene(ctx context.Context, cameraID string) (*models.Scene, error)
	GetSceneHistory(ctx context.Context, cameraID string, since time.Time) ([]models.Scene, error)
	// RequestSnapshot returns a URL for a fresh snapshot, or "" when
	// none is available.
	RequestSnapshot(ctx context.Context, cameraID string) (string, error)
}

// IntentClassifier maps free-form text to one of the closed intent
// labels. An unconfigured classifier returns IntentUnknown, not an
// error.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (models.Intent, error)
}

// Generator produces free-form assistant text from a system prompt and
// conversation history.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Turn) (string, error)
}

// EscalationPolicy decides whether an alert may be escalated beyond
// the user (e.g. to another contact). The default denies everything.
type EscalationPolicy func(alert *models.Alert) bool

// DenyEscalation is the default policy: never escalate.
func DenyEscalation(*models.Alert) bool { return false }
