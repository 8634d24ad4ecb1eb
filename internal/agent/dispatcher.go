package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/observability"
)

const helpText = `Here's what I can do:
• "How are things?" - Get current status
• "Is my cat there?" - Check for specific objects
• "Send a picture" - Request snapshot
• "Set status to away" - Enable away mode alerts
• "Turn off alerts" - Disable notifications`

const systemPromptFormat = `You are Homey, a friendly and concise home monitoring assistant.

## Your Capabilities
- Report current scene status (what objects are visible, motion detected)
- Describe what's happening at home based on camera data
- Send alerts when unusual activity occurs
- Answer questions about recent events

## Communication Style
- Be concise: 1-2 sentences for simple queries
- Be friendly but professional
- Use present tense for current state ("A cat is visible")
- Use past tense for events ("Motion was detected at 2:14 PM")

## Strict Rules (NEVER violate)
1. NEVER identify specific individuals - only say "a person"
2. NEVER make emotional judgments about people on camera
3. NEVER suggest contacting the authorities
4. NEVER diagnose medical conditions
5. NEVER share information about one user with another
6. If unsure, say "I'm not sure" rather than guessing

## Context
Current time: %s
User status: %s
User name: %s

## Latest Scene Data
Camera: %s
Last updated: %s
Objects detected: %s
Motion: %s

## Recent Events (last 24h)
%s
`

// Dispatcher routes one inbound message to a handler by classified
// intent and produces the outgoing reply. Handlers are synchronous and
// side-effect free except the free-form path, which appends to the
// conversation history.
type Dispatcher struct {
	perception Perception
	classifier IntentClassifier
	generator  Generator
	escalate   EscalationPolicy
	now        Clock
	timeout    time.Duration
}

// NewDispatcher wires the dispatcher's collaborators. Nil clock
// defaults to time.Now; nil escalation policy denies.
func NewDispatcher(perception Perception, classifier IntentClassifier, generator Generator, clock Clock) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		perception: perception,
		classifier: classifier,
		generator:  generator,
		escalate:   DenyEscalation,
		now:        clock,
		timeout:    30 * time.Second,
	}
}

// SetTimeout overrides the default 30s bound on collaborator calls
// (classification, generation, snapshot requests). Non-positive values
// are ignored.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

// SetEscalationPolicy overrides the default deny-all escalation check
// consulted by the ESCALATION_CONFIRM handler.
func (d *Dispatcher) SetEscalationPolicy(policy EscalationPolicy) {
	if policy != nil {
		d.escalate = policy
	}
}

// Process classifies the message and dispatches to the matching
// handler, returning the reply plus the classified intent so callers
// can persist it. Collaborator failures degrade to fallback text;
// Process never returns an error to the caller.
func (d *Dispatcher) Process(ctx context.Context, msg *models.IncomingMessage, conv *ConversationContext) (models.OutgoingMessage, models.Intent) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	intent, err := d.classifier.ClassifyIntent(cctx, msg.Content)
	if err != nil {
		slog.Warn("intent classification failed", "error", err)
		intent = models.IntentUnknown
	}
	observability.MessagesProcessed.WithLabelValues(string(intent)).Inc()

	switch intent {
	case models.IntentStatusCheck:
		return d.handleStatusCheck(conv), intent
	case models.IntentObjectQuery:
		return d.handleObjectQuery(msg, conv), intent
	case models.IntentSnapshotRequest:
		return d.handleSnapshotRequest(cctx, conv), intent
	case models.IntentHelp:
		return models.TextMessage(helpText), intent
	case models.IntentSettings:
		return models.TextMessage("Settings updates coming soon."), intent
	case models.IntentGreeting:
		return models.TextMessage("Hi there! How can I help with your home today?"), intent
	case models.IntentAlertAcknowledge:
		return models.TextMessage("Noted. Alert dismissed."), intent
	case models.IntentEscalationConfirm:
		if d.escalate(nil) {
			return models.TextMessage("Escalation confirmed. Notifying your contacts."), intent
		}
		return models.TextMessage("Escalation is currently disabled."), intent
	default:
		return d.handleFreeForm(cctx, msg, conv), intent
	}
}

func (d *Dispatcher) handleStatusCheck(conv *ConversationContext) models.OutgoingMessage {
	scene := conv.LatestScene
	if scene == nil || (len(scene.Objects) == 0 && !scene.Motion) {
		return models.TextMessage("All quiet at home. No recent activity detected.")
	}
	if len(scene.Objects) > 0 {
		parts := make([]string, 0, len(scene.Objects))
		for _, obj := range scene.Objects {
			parts = append(parts, fmt.Sprintf("%s (%d%%)", obj.Type, confidencePercent(obj.Confidence)))
		}
		motion := "no motion"
		if scene.Motion {
			motion = "with motion"
		}
		return models.TextMessage(fmt.Sprintf("I can see: %s. %s.", strings.Join(parts, ", "), motion))
	}
	return models.TextMessage("Motion detected recently. No specific objects identified.")
}

func (d *Dispatcher) handleObjectQuery(msg *models.IncomingMessage, conv *ConversationContext) models.OutgoingMessage {
	scene := conv.LatestScene
	if scene == nil {
		return models.TextMessage("No scene data available right now.")
	}
	content := strings.ToLower(msg.Content)
	for _, obj := range scene.Objects {
		if strings.Contains(content, strings.ToLower(obj.Type)) {
			return models.TextMessage(fmt.Sprintf("Yes, %s is visible. Confidence: %d%%.",
				obj.Type, confidencePercent(obj.Confidence)))
		}
	}
	return models.TextMessage("I don't see that right now. The area appears empty.")
}

func (d *Dispatcher) handleSnapshotRequest(ctx context.Context, conv *ConversationContext) models.OutgoingMessage {
	if conv.CameraID == "" {
		return models.TextMessage("No camera configured.")
	}
	url, err := d.perception.RequestSnapshot(ctx, conv.CameraID)
	if err != nil || url == "" {
		if err != nil {
			slog.Warn("snapshot request failed", "camera_id", conv.CameraID, "error", err)
		}
		return models.TextMessage("Unable to capture a snapshot right now.")
	}
	return models.OutgoingMessage{
		Type:     models.MessagePhoto,
		PhotoURL: url,
		Text:     "Here's a snapshot from your home.",
	}
}

// handleFreeForm is the only path that mutates the conversation
// history: the user turn is appended before the model call, the model
// turn after it succeeds.
func (d *Dispatcher) handleFreeForm(ctx context.Context, msg *models.IncomingMessage, conv *ConversationContext) models.OutgoingMessage {
	prompt := d.buildSystemPrompt(conv)
	conv.History = append(conv.History, Turn{Role: "user", Content: msg.Content})

	start := d.now()
	reply, err := d.generator.Generate(ctx, prompt, conv.History)
	observability.LLMRequestDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("text generation failed", "error", err)
		return models.TextMessage("Sorry, I'm having trouble answering right now. Please try again in a moment.")
	}

	conv.History = append(conv.History, Turn{Role: "model", Content: reply})
	return models.TextMessage(reply)
}

func (d *Dispatcher) buildSystemPrompt(conv *ConversationContext) string {
	cameraName := "N/A"
	sceneTime := "N/A"
	objects := "None"
	motion := "No motion"
	if scene := conv.LatestScene; scene != nil {
		cameraName = scene.CameraID
		sceneTime = scene.Timestamp.Format(time.RFC3339)
		if len(scene.Objects) > 0 {
			names := make([]string, 0, len(scene.Objects))
			for _, obj := range scene.Objects {
				names = append(names, obj.Type)
			}
			objects = strings.Join(names, ", ")
		}
		if scene.Motion {
			motion = "Motion detected"
		}
	}

	status := conv.UserStatus
	if status == "" {
		status = models.StatusHome
	}
	name := conv.UserName
	if name == "" {
		name = "User"
	}
	events := conv.RecentEventsSummary
	if events == "" {
		events = "None"
	}

	return fmt.Sprintf(systemPromptFormat,
		d.now().Format(time.RFC3339), status, name,
		cameraName, sceneTime, objects, motion, events)
}

func confidencePercent(c float64) int {
	return int(math.Round(c * 100))
}
