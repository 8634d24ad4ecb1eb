package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/observability"
)

const whatsappAPIBase = "https://graph.facebook.com/v18.0"

// WhatsApp adapts the WhatsApp Business Graph API.
type WhatsApp struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	client        *http.Client
}

func NewWhatsApp(accessToken, phoneNumberID string) *WhatsApp {
	return &WhatsApp{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       whatsappAPIBase,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// Wire types for the webhook payload's entry/changes/value nesting.

type waPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []waMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type waMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image *struct {
		ID      string `json:"id"`
		Caption string `json:"caption"`
	} `json:"image"`
	Interactive *struct {
		Type     string `json:"type"`
		NFMReply *struct {
			ID string `json:"id"`
		} `json:"nfm_reply"`
	} `json:"interactive"`
}

// Receive extracts the first message from a webhook payload.
func (w *WhatsApp) Receive(payload []byte) (*models.IncomingMessage, error) {
	var p waPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var wm *waMessage
scan:
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				wm = &change.Value.Messages[0]
				break scan
			}
		}
	}
	if wm == nil {
		return nil, fmt.Errorf("%w: no messages in webhook payload", ErrMalformedPayload)
	}
	if wm.From == "" || wm.ID == "" {
		return nil, fmt.Errorf("%w: message missing sender or id", ErrMalformedPayload)
	}

	ts := time.Now().UTC()
	if unix, err := strconv.ParseInt(wm.Timestamp, 10, 64); err == nil {
		ts = time.Unix(unix, 0).UTC()
	}

	msg := &models.IncomingMessage{
		MessageID: wm.ID,
		SenderID:  wm.From,
		Timestamp: ts,
		Type:      models.MessageText,
	}

	switch wm.Type {
	case "image":
		msg.Type = models.MessagePhoto
		if wm.Image != nil {
			msg.Content = wm.Image.Caption
			msg.MediaRef = wm.Image.ID
		}
	case "interactive":
		msg.Type = models.MessageCallback
		if wm.Interactive != nil && wm.Interactive.NFMReply != nil {
			msg.CallbackPayload = wm.Interactive.NFMReply.ID
		}
	default:
		if wm.Text != nil {
			msg.Content = wm.Text.Body
		}
	}

	return msg, nil
}

// Send delivers the message via the Graph API messages endpoint.
func (w *WhatsApp) Send(ctx context.Context, recipientID string, msg models.OutgoingMessage) bool {
	body := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                recipientID,
		"recipient_type":    "individual",
	}

	switch {
	case msg.Type == models.MessagePhoto && msg.PhotoURL != "":
		body["type"] = "image"
		body["image"] = map[string]string{"link": msg.PhotoURL}
	case len(msg.Buttons) > 0:
		buttons := make([]map[string]interface{}, 0)
		for _, row := range msg.Buttons {
			for _, b := range row {
				buttons = append(buttons, map[string]interface{}{
					"type":  "reply",
					"reply": map[string]string{"id": b.Payload, "title": b.Text},
				})
			}
		}
		body["type"] = "interactive"
		body["interactive"] = map[string]interface{}{
			"type":   "button",
			"body":   map[string]string{"text": msg.Text},
			"action": map[string]interface{}{"buttons": buttons},
		}
	default:
		body["type"] = "text"
		body["text"] = map[string]string{"body": msg.Text}
	}

	ok := w.post(ctx, body)
	result := "ok"
	if !ok {
		result = "error"
	}
	observability.MessagesSent.WithLabelValues("whatsapp", result).Inc()
	return ok
}

func (w *WhatsApp) post(ctx context.Context, body map[string]interface{}) bool {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("marshal whatsapp request", "error", err)
		return false
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Error("build whatsapp request", "error", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		slog.Warn("whatsapp send failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("whatsapp send rejected", "status", resp.StatusCode, "body", string(data))
		return false
	}
	return true
}
