package agent

import (
	"regexp"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/observability"
)

// RedactionMarker replaces every blocked phrase in outgoing text.
const RedactionMarker = "[REDACTED]"

// blockedPatterns are matched case-insensitively against outgoing text,
// in order: emergency-service instructions, specific relationship
// references, and emotional-state judgments.
var blockedPatterns = []string{
	`call.*police`,
	`call.*911`,
	`call.*999`,
	`call.*000`,
	`emergency services`,
	`emergencies`,
	`looks (sad|angry|scared|anxious|depressed|worried|upset)`,
	`your (friend|family|wife|husband|child|son|daughter|mom|dad)`,
	`the (friend|family|wife|husband|child|son|daughter|mom|dad)`,
}

// Gatekeeper post-processes every outgoing message before transport.
// There is no bypass path: canned, rule-based, and generated messages
// all go through Validate.
type Gatekeeper struct {
	patterns []*regexp.Regexp
	escalate EscalationPolicy
}

// NewGatekeeper compiles the redaction rules. A nil policy denies all
// escalation.
func NewGatekeeper(policy EscalationPolicy) *Gatekeeper {
	if policy == nil {
		policy = DenyEscalation
	}
	patterns := make([]*regexp.Regexp, 0, len(blockedPatterns))
	for _, p := range blockedPatterns {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+p))
	}
	return &Gatekeeper{patterns: patterns, escalate: policy}
}

// Validate returns the message with all blocked phrases in its text
// replaced by the redaction marker. Other fields are untouched.
// Redaction is idempotent: validating already-redacted text is a
// no-op.
func (g *Gatekeeper) Validate(msg models.OutgoingMessage) models.OutgoingMessage {
	if msg.Text != "" {
		msg.Text = g.redact(msg.Text)
	}
	return msg
}

func (g *Gatekeeper) redact(text string) string {
	for _, re := range g.patterns {
		if n := len(re.FindAllStringIndex(text, -1)); n > 0 {
			observability.RedactionsTotal.Add(float64(n))
			text = re.ReplaceAllString(text, RedactionMarker)
		}
	}
	return text
}

// AllowEscalation consults the escalation policy for an alert.
func (g *Gatekeeper) AllowEscalation(alert *models.Alert) bool {
	return g.escalate(alert)
}
