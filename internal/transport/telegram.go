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

const telegramAPIBase = "https://api.telegram.org"

// Telegram adapts the Telegram Bot API: webhook updates in,
// sendMessage/sendPhoto out.
type Telegram struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewTelegram(token string) *Telegram {
	return &Telegram{
		token:   token,
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Wire types for the subset of the Bot API we consume.

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

type tgMessage struct {
	MessageID int64       `json:"message_id"`
	From      *tgUser     `json:"from"`
	Date      int64       `json:"date"`
	Text      string      `json:"text"`
	Photo     []tgPhoto   `json:"photo"`
	Caption   string      `json:"caption"`
	Location  *tgLocation `json:"location"`
}

type tgUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tgPhoto struct {
	FileID string `json:"file_id"`
}

type tgLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    *tgUser    `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

// Receive parses a webhook update into the internal message model.
func (t *Telegram) Receive(payload []byte) (*models.IncomingMessage, error) {
	var update tgUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.ID == "" {
			return nil, fmt.Errorf("%w: callback query missing sender or id", ErrMalformedPayload)
		}
		msg := &models.IncomingMessage{
			MessageID:       cb.ID,
			SenderID:        strconv.FormatInt(cb.From.ID, 10),
			SenderUsername:  cb.From.Username,
			Timestamp:       time.Now().UTC(),
			Type:            models.MessageCallback,
			CallbackPayload: cb.Data,
		}
		if cb.Message != nil {
			msg.Timestamp = time.Unix(cb.Message.Date, 0).UTC()
		}
		return msg, nil
	}

	m := update.Message
	if m == nil || m.From == nil || m.MessageID == 0 {
		return nil, fmt.Errorf("%w: update carries no usable message", ErrMalformedPayload)
	}

	msg := &models.IncomingMessage{
		MessageID:      strconv.FormatInt(m.MessageID, 10),
		SenderID:       strconv.FormatInt(m.From.ID, 10),
		SenderUsername: m.From.Username,
		Timestamp:      time.Unix(m.Date, 0).UTC(),
		Type:           models.MessageText,
		Content:        m.Text,
	}

	switch {
	case len(m.Photo) > 0:
		msg.Type = models.MessagePhoto
		msg.Content = m.Caption
		// Telegram sends multiple resolutions; last is the largest.
		msg.MediaRef = m.Photo[len(m.Photo)-1].FileID
	case m.Location != nil:
		msg.Type = models.MessageLocation
		msg.Content = fmt.Sprintf("%f,%f", m.Location.Latitude, m.Location.Longitude)
	}

	return msg, nil
}

// Send delivers the message via sendMessage or sendPhoto.
func (t *Telegram) Send(ctx context.Context, recipientID string, msg models.OutgoingMessage) bool {
	var method string
	body := map[string]interface{}{"chat_id": recipientID}

	switch msg.Type {
	case models.MessagePhoto:
		method = "sendPhoto"
		body["photo"] = msg.PhotoURL
		if msg.Text != "" {
			body["caption"] = msg.Text
		}
	default:
		method = "sendMessage"
		body["text"] = msg.Text
	}

	if msg.ParseMode != "" {
		body["parse_mode"] = msg.ParseMode
	}
	if len(msg.Buttons) > 0 {
		keyboard := make([][]map[string]string, 0, len(msg.Buttons))
		for _, row := range msg.Buttons {
			keyRow := make([]map[string]string, 0, len(row))
			for _, b := range row {
				keyRow = append(keyRow, map[string]string{
					"text":          b.Text,
					"callback_data": b.Payload,
				})
			}
			keyboard = append(keyboard, keyRow)
		}
		body["reply_markup"] = map[string]interface{}{"inline_keyboard": keyboard}
	}

	ok := t.post(ctx, method, body)
	result := "ok"
	if !ok {
		result = "error"
	}
	observability.MessagesSent.WithLabelValues("telegram", result).Inc()
	return ok
}

func (t *Telegram) post(ctx context.Context, method string, body map[string]interface{}) bool {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("marshal telegram request", "method", method, "error", err)
		return false
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Error("build telegram request", "method", method, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		slog.Warn("telegram send failed", "method", method, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("telegram send rejected", "method", method, "status", resp.StatusCode, "body", string(data))
		return false
	}
	return true
}
