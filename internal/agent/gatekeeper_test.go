package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/homewatch/internal/models"
)

func TestGatekeeperRedaction(t *testing.T) {
	g := NewGatekeeper(nil)

	t.Run("clean text passes unchanged", func(t *testing.T) {
		in := models.TextMessage("All quiet at home. No recent activity detected.")
		out := g.Validate(in)
		assert.Equal(t, in.Text, out.Text)
	})

	t.Run("emergency instructions are redacted", func(t *testing.T) {
		out := g.Validate(models.TextMessage("You should call the police immediately"))
		assert.NotContains(t, out.Text, "police")
		assert.Contains(t, out.Text, RedactionMarker)
	})

	t.Run("case insensitive", func(t *testing.T) {
		out := g.Validate(models.TextMessage("CALL 911 now"))
		assert.Contains(t, out.Text, RedactionMarker)
		assert.NotContains(t, out.Text, "911")
	})

	t.Run("multiple patterns redacted in one message", func(t *testing.T) {
		out := g.Validate(models.TextMessage("I think your wife looks worried"))
		assert.NotContains(t, out.Text, "your wife")
		assert.NotContains(t, out.Text, "looks worried")
		assert.Contains(t, out.Text, RedactionMarker)
	})

	t.Run("emotional judgments are redacted", func(t *testing.T) {
		out := g.Validate(models.TextMessage("The person looks sad today"))
		assert.NotContains(t, out.Text, "looks sad")
	})

	t.Run("idempotent", func(t *testing.T) {
		once := g.Validate(models.TextMessage("Please call emergency services"))
		twice := g.Validate(once)
		assert.Equal(t, once.Text, twice.Text)
	})

	t.Run("non-text fields untouched", func(t *testing.T) {
		in := models.OutgoingMessage{
			Type:     models.MessagePhoto,
			PhotoURL: "https://example.com/snap.jpg",
			Text:     "Here's a snapshot from your home.",
		}
		out := g.Validate(in)
		assert.Equal(t, in.PhotoURL, out.PhotoURL)
		assert.Equal(t, in.Type, out.Type)
	})
}

func TestGatekeeperEscalationPolicy(t *testing.T) {
	t.Run("nil policy denies", func(t *testing.T) {
		g := NewGatekeeper(nil)
		assert.False(t, g.AllowEscalation(&models.Alert{RuleID: "r"}))
	})

	t.Run("custom policy consulted", func(t *testing.T) {
		g := NewGatekeeper(func(a *models.Alert) bool {
			return a != nil && a.Severity == models.SeverityHigh
		})
		assert.True(t, g.AllowEscalation(&models.Alert{Severity: models.SeverityHigh}))
		assert.False(t, g.AllowEscalation(&models.Alert{Severity: models.SeverityLow}))
	})
}
