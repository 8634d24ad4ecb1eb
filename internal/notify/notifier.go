// Package notify delivers fired alerts to the user's chat transport.
// Every alert message passes through the gatekeeper before send, the
// same as conversational replies.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/your-org/homewatch/internal/agent"
	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/transport"
)

// Callback payloads echoed back when the user presses an alert button.
const (
	CallbackView   = "alert_view"
	CallbackIgnore = "alert_ignore"
)

var severityMarkers = map[models.Severity]string{
	models.SeverityLow:    "ℹ️",
	models.SeverityMedium: "⚠️",
	models.SeverityHigh:   "🚨",
}

// Notifier turns alert tasks into outgoing chat messages, routed to
// the transport matching the user's platform.
type Notifier struct {
	gatekeeper *agent.Gatekeeper
	transports map[models.Platform]transport.Transport
}

func NewNotifier(gatekeeper *agent.Gatekeeper, telegram, whatsapp transport.Transport) *Notifier {
	return &Notifier{
		gatekeeper: gatekeeper,
		transports: map[models.Platform]transport.Transport{
			models.PlatformTelegram: telegram,
			models.PlatformWhatsApp: whatsapp,
		},
	}
}

// Deliver formats, validates, and sends one alert. Returns an error
// only for delivery failure (so the queue can redeliver); formatting
// never fails. Tasks carrying an unknown platform are dropped with a
// log line since no amount of redelivery can route them.
func (n *Notifier) Deliver(ctx context.Context, task *models.AlertTask) error {
	tr, ok := n.transports[task.Platform]
	if !ok || tr == nil {
		slog.Warn("drop alert for unroutable platform", "event_id", task.EventID, "platform", task.Platform)
		return nil
	}
	msg := n.gatekeeper.Validate(FormatAlert(task))
	if !tr.Send(ctx, task.ChatID, msg) {
		return fmt.Errorf("deliver alert %s to %s", task.EventID, task.ChatID)
	}
	slog.Info("alert delivered", "event_id", task.EventID, "rule_id", task.RuleID, "platform", task.Platform, "chat_id", task.ChatID)
	return nil
}

// FormatAlert renders the alert text with severity marker, scene
// summary, and VIEW/IGNORE quick replies carrying the event id.
func FormatAlert(task *models.AlertTask) models.OutgoingMessage {
	marker := severityMarkers[task.Severity]
	if marker == "" {
		marker = severityMarkers[models.SeverityMedium]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", marker, task.RuleName)
	fmt.Fprintf(&b, "Camera: %s at %s", task.CameraID, task.FiredAt.Format("15:04 MST"))
	if scene := task.Scene; scene != nil && len(scene.Objects) > 0 {
		names := make([]string, 0, len(scene.Objects))
		for _, obj := range scene.Objects {
			names = append(names, obj.Type)
		}
		fmt.Fprintf(&b, "\nSeen: %s", strings.Join(names, ", "))
	}

	payload := func(action string) string {
		return action + ":" + task.EventID.String()
	}

	return models.OutgoingMessage{
		Type: models.MessageInteractive,
		Text: b.String(),
		Buttons: [][]models.InlineButton{{
			{Text: "View", Payload: payload(CallbackView)},
			{Text: "Ignore", Payload: payload(CallbackIgnore)},
		}},
	}
}
