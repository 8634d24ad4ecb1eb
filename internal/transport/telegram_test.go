package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/homewatch/internal/models"
)

func TestTelegramReceive(t *testing.T) {
	tg := NewTelegram("test-token")

	t.Run("text message", func(t *testing.T) {
		payload := []byte(`{
			"update_id": 1,
			"message": {
				"message_id": 42,
				"from": {"id": 12345, "username": "alice"},
				"date": 1767225600,
				"text": "how are things?"
			}
		}`)
		msg, err := tg.Receive(payload)
		require.NoError(t, err)
		assert.Equal(t, "42", msg.MessageID)
		assert.Equal(t, "12345", msg.SenderID)
		assert.Equal(t, "alice", msg.SenderUsername)
		assert.Equal(t, models.MessageText, msg.Type)
		assert.Equal(t, "how are things?", msg.Content)
	})

	t.Run("photo message uses largest resolution", func(t *testing.T) {
		payload := []byte(`{
			"message": {
				"message_id": 43,
				"from": {"id": 12345},
				"date": 1767225600,
				"caption": "look",
				"photo": [{"file_id": "small"}, {"file_id": "large"}]
			}
		}`)
		msg, err := tg.Receive(payload)
		require.NoError(t, err)
		assert.Equal(t, models.MessagePhoto, msg.Type)
		assert.Equal(t, "large", msg.MediaRef)
		assert.Equal(t, "look", msg.Content)
	})

	t.Run("callback query", func(t *testing.T) {
		payload := []byte(`{
			"callback_query": {
				"id": "cb1",
				"from": {"id": 12345},
				"data": "alert_view:9af3"
			}
		}`)
		msg, err := tg.Receive(payload)
		require.NoError(t, err)
		assert.Equal(t, models.MessageCallback, msg.Type)
		assert.Equal(t, "alert_view:9af3", msg.CallbackPayload)
	})

	t.Run("location message", func(t *testing.T) {
		payload := []byte(`{
			"message": {
				"message_id": 44,
				"from": {"id": 12345},
				"date": 1767225600,
				"location": {"latitude": 51.5, "longitude": -0.1}
			}
		}`)
		msg, err := tg.Receive(payload)
		require.NoError(t, err)
		assert.Equal(t, models.MessageLocation, msg.Type)
		assert.Contains(t, msg.Content, "51.5")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := tg.Receive([]byte("not json"))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("update without message", func(t *testing.T) {
		_, err := tg.Receive([]byte(`{"update_id": 7}`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("message without sender", func(t *testing.T) {
		_, err := tg.Receive([]byte(`{"message": {"message_id": 1, "text": "hi"}}`))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("test-token")
	tg.baseURL = srv.URL

	t.Run("text with buttons", func(t *testing.T) {
		out := models.OutgoingMessage{
			Type: models.MessageText,
			Text: "alert",
			Buttons: [][]models.InlineButton{
				{{Text: "View", Payload: "alert_view:1"}},
			},
		}
		ok := tg.Send(context.Background(), "12345", out)
		require.True(t, ok)
		assert.Equal(t, "/bottest-token/sendMessage", gotPath)
		assert.Equal(t, "alert", gotBody["text"])
		assert.NotNil(t, gotBody["reply_markup"])
	})

	t.Run("photo", func(t *testing.T) {
		out := models.OutgoingMessage{
			Type:     models.MessagePhoto,
			PhotoURL: "https://example.com/s.jpg",
			Text:     "snapshot",
		}
		ok := tg.Send(context.Background(), "12345", out)
		require.True(t, ok)
		assert.Equal(t, "/bottest-token/sendPhoto", gotPath)
		assert.Equal(t, "https://example.com/s.jpg", gotBody["photo"])
		assert.Equal(t, "snapshot", gotBody["caption"])
	})

	t.Run("server error returns false", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer bad.Close()

		tg := NewTelegram("t")
		tg.baseURL = bad.URL
		assert.False(t, tg.Send(context.Background(), "1", models.TextMessage("x")))
	})
}
