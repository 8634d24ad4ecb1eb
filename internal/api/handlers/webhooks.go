package handlers

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/homewatch/internal/agent"
	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/notify"
	"github.com/your-org/homewatch/internal/storage"
	"github.com/your-org/homewatch/internal/transport"
)

const historyLimit = 20

// WebhookHandler receives chat platform webhooks, runs the message
// through the conversation pipeline and sends the reply back over the
// originating transport.
type WebhookHandler struct {
	db         *storage.PostgresStore
	perception agent.Perception
	dispatcher *agent.Dispatcher
	gatekeeper *agent.Gatekeeper

	telegram       transport.Transport
	whatsapp       transport.Transport
	telegramSecret string
	whatsappVerify string
}

func NewWebhookHandler(
	db *storage.PostgresStore,
	perception agent.Perception,
	dispatcher *agent.Dispatcher,
	gatekeeper *agent.Gatekeeper,
	telegram, whatsapp transport.Transport,
	telegramSecret, whatsappVerify string,
) *WebhookHandler {
	return &WebhookHandler{
		db:             db,
		perception:     perception,
		dispatcher:     dispatcher,
		gatekeeper:     gatekeeper,
		telegram:       telegram,
		whatsapp:       whatsapp,
		telegramSecret: telegramSecret,
		whatsappVerify: whatsappVerify,
	}
}

// Telegram handles POST updates from the Telegram Bot API.
func (h *WebhookHandler) Telegram(c *gin.Context) {
	if h.telegramSecret != "" {
		token := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.telegramSecret)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "bad secret token"})
			return
		}
	}
	h.process(c, h.telegram, models.PlatformTelegram)
}

// WhatsAppVerify answers the Meta webhook subscription challenge.
func (h *WebhookHandler) WhatsAppVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	if mode == "subscribe" && token == h.whatsappVerify {
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
}

// WhatsApp handles POST notifications from the WhatsApp Cloud API.
func (h *WebhookHandler) WhatsApp(c *gin.Context) {
	h.process(c, h.whatsapp, models.PlatformWhatsApp)
}

// process runs one inbound payload through receive, dispatch, gatekeep
// and send. Malformed payloads are acknowledged with 200 so the
// platform does not retry them.
func (h *WebhookHandler) process(c *gin.Context, tr transport.Transport, platform models.Platform) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}

	msg, err := tr.Receive(body)
	if err != nil {
		slog.Warn("drop webhook payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()

	if msg.Type == models.MessageCallback {
		h.handleCallback(c, tr, msg)
		return
	}

	user, err := h.db.GetOrCreateUser(ctx, platform, msg.SenderID, msg.SenderUsername, "")
	if err != nil {
		slog.Error("get or create user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	conv := h.buildContext(c, user)

	if err := h.db.LogMessage(ctx, user.ID, "inbound", msg.Content, msg.Type, msg.MessageID, ""); err != nil {
		slog.Warn("log inbound message", "error", err)
	}

	out, intent := h.dispatcher.Process(ctx, msg, conv)

	if intent == models.IntentSettings {
		if reply, ok := h.applyStatusChange(c, user, msg.Content); ok {
			out = reply
		}
	}

	out = h.gatekeeper.Validate(out)

	if !tr.Send(ctx, msg.SenderID, out) {
		slog.Warn("send reply failed", "sender_id", msg.SenderID)
	}

	if err := h.db.LogMessage(ctx, user.ID, "outbound", out.Text, out.Type, "", intent); err != nil {
		slog.Warn("log outbound message", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCallback acknowledges the event referenced by an alert button
// press ("alert_view:<event_id>" or "alert_ignore:<event_id>").
func (h *WebhookHandler) handleCallback(c *gin.Context, tr transport.Transport, msg *models.IncomingMessage) {
	ctx := c.Request.Context()

	action, idStr, ok := strings.Cut(msg.CallbackPayload, ":")
	eventID, parseErr := uuid.Parse(idStr)
	if !ok || parseErr != nil {
		slog.Warn("bad callback payload", "payload", msg.CallbackPayload)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var reply models.OutgoingMessage
	switch action {
	case notify.CallbackView:
		if err := h.db.AcknowledgeEvent(ctx, eventID, "viewed"); err != nil {
			slog.Error("acknowledge event", "event_id", eventID, "error", err)
		}
		reply = models.TextMessage("Noted. You can ask me for a snapshot any time.")
	case notify.CallbackIgnore:
		if err := h.db.AcknowledgeEvent(ctx, eventID, "ignored"); err != nil {
			slog.Error("acknowledge event", "event_id", eventID, "error", err)
		}
		reply = models.TextMessage("Alert ignored.")
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	reply = h.gatekeeper.Validate(reply)
	if !tr.Send(ctx, msg.SenderID, reply) {
		slog.Warn("send callback reply failed", "sender_id", msg.SenderID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// buildContext assembles the per-message conversation context. Storage
// failures degrade to a partial context rather than an error reply.
func (h *WebhookHandler) buildContext(c *gin.Context, user *models.User) *agent.ConversationContext {
	ctx := c.Request.Context()

	conv := &agent.ConversationContext{
		UserStatus: user.Status,
		UserName:   user.FirstName,
	}
	if conv.UserName == "" {
		conv.UserName = user.Username
	}

	camera, err := h.db.GetUserCamera(ctx, user.ID)
	if err != nil {
		slog.Warn("lookup user camera", "user_id", user.ID, "error", err)
	}
	if camera != nil {
		conv.CameraID = camera.DeviceID
		scene, err := h.perception.GetLatestScene(ctx, camera.DeviceID)
		if err != nil {
			slog.Warn("fetch latest scene", "camera_id", camera.DeviceID, "error", err)
		}
		conv.LatestScene = scene
	}

	summary, err := h.db.RecentEventsSummary(ctx, user.ID)
	if err != nil {
		slog.Warn("fetch events summary", "user_id", user.ID, "error", err)
	}
	conv.RecentEventsSummary = summary

	stored, err := h.db.ConversationHistory(ctx, user.ID, historyLimit)
	if err != nil {
		slog.Warn("fetch conversation history", "user_id", user.ID, "error", err)
	}
	for _, m := range stored {
		role := "user"
		if m.Direction == "outbound" {
			role = "model"
		}
		conv.History = append(conv.History, agent.Turn{Role: role, Content: m.Content})
	}

	return conv
}

// applyStatusChange updates the user's status when the message names
// one ("set status to away"). Returns false when no status keyword is
// present so the dispatcher's reply stands.
func (h *WebhookHandler) applyStatusChange(c *gin.Context, user *models.User, content string) (models.OutgoingMessage, bool) {
	lowered := strings.ToLower(content)

	var status models.UserStatus
	switch {
	case strings.Contains(lowered, "away"):
		status = models.StatusAway
	case strings.Contains(lowered, "home"):
		status = models.StatusHome
	case strings.Contains(lowered, "do not disturb"), strings.Contains(lowered, "dnd"):
		status = models.StatusDND
	default:
		return models.OutgoingMessage{}, false
	}

	if err := h.db.UpdateUserStatus(c.Request.Context(), user.ID, status); err != nil {
		slog.Error("update user status", "user_id", user.ID, "error", err)
		return models.TextMessage("Couldn't update your status right now. Please try again."), true
	}

	switch status {
	case models.StatusAway:
		return models.TextMessage("Status set to away. I'll keep a close eye on things."), true
	case models.StatusDND:
		return models.TextMessage("Status set to do-not-disturb. I'll hold non-critical alerts."), true
	default:
		return models.TextMessage("Welcome home! Status set to home."), true
	}
}
