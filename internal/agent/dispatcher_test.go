package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/homewatch/internal/models"
)

type stubClassifier struct {
	intent models.Intent
	err    error
}

func (s *stubClassifier) ClassifyIntent(context.Context, string) (models.Intent, error) {
	return s.intent, s.err
}

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (s *stubGenerator) Generate(context.Context, string, []Turn) (string, error) {
	s.calls++
	return s.reply, s.err
}

type stubPerception struct {
	snapshotURL string
	snapshotErr error
}

func (s *stubPerception) GetLatestScene(context.Context, string) (*models.Scene, error) {
	return nil, nil
}

func (s *stubPerception) GetSceneHistory(context.Context, string, time.Time) ([]models.Scene, error) {
	return nil, nil
}

func (s *stubPerception) RequestSnapshot(context.Context, string) (string, error) {
	return s.snapshotURL, s.snapshotErr
}

func newTestDispatcher(intent models.Intent, gen *stubGenerator) *Dispatcher {
	if gen == nil {
		gen = &stubGenerator{reply: "generated reply"}
	}
	return NewDispatcher(&stubPerception{}, &stubClassifier{intent: intent}, gen, nil)
}

func textMsg(content string) *models.IncomingMessage {
	return &models.IncomingMessage{
		MessageID: "m1",
		SenderID:  "u1",
		Type:      models.MessageText,
		Content:   content,
	}
}

func TestDispatcherStatusCheck(t *testing.T) {
	d := newTestDispatcher(models.IntentStatusCheck, nil)

	t.Run("no scene reports quiet", func(t *testing.T) {
		out, intent := d.Process(context.Background(), textMsg("how are things?"), &ConversationContext{})
		assert.Equal(t, models.IntentStatusCheck, intent)
		assert.Equal(t, "All quiet at home. No recent activity detected.", out.Text)
	})

	t.Run("objects with motion", func(t *testing.T) {
		conv := &ConversationContext{
			LatestScene: &models.Scene{
				Motion:  true,
				Objects: []models.DetectedObject{{Type: "cat", Confidence: 0.92}},
			},
		}
		out, _ := d.Process(context.Background(), textMsg("status?"), conv)
		assert.Equal(t, "I can see: cat (92%). with motion.", out.Text)
	})

	t.Run("motion without objects", func(t *testing.T) {
		conv := &ConversationContext{LatestScene: &models.Scene{Motion: true}}
		out, _ := d.Process(context.Background(), textMsg("status?"), conv)
		assert.Equal(t, "Motion detected recently. No specific objects identified.", out.Text)
	})
}

func TestDispatcherObjectQuery(t *testing.T) {
	d := newTestDispatcher(models.IntentObjectQuery, nil)
	conv := &ConversationContext{
		LatestScene: &models.Scene{
			Objects: []models.DetectedObject{{Type: "cat", Confidence: 0.876}},
		},
	}

	t.Run("object present", func(t *testing.T) {
		out, _ := d.Process(context.Background(), textMsg("is my cat there?"), conv)
		assert.Equal(t, "Yes, cat is visible. Confidence: 88%.", out.Text)
	})

	t.Run("object absent", func(t *testing.T) {
		out, _ := d.Process(context.Background(), textMsg("is the dog there?"), conv)
		assert.Equal(t, "I don't see that right now. The area appears empty.", out.Text)
	})

	t.Run("no scene data", func(t *testing.T) {
		out, _ := d.Process(context.Background(), textMsg("is my cat there?"), &ConversationContext{})
		assert.Equal(t, "No scene data available right now.", out.Text)
	})
}

func TestDispatcherSnapshotRequest(t *testing.T) {
	t.Run("no camera configured", func(t *testing.T) {
		d := newTestDispatcher(models.IntentSnapshotRequest, nil)
		out, _ := d.Process(context.Background(), textMsg("send a picture"), &ConversationContext{})
		assert.Equal(t, "No camera configured.", out.Text)
	})

	t.Run("snapshot available", func(t *testing.T) {
		d := NewDispatcher(
			&stubPerception{snapshotURL: "https://minio/snap.jpg"},
			&stubClassifier{intent: models.IntentSnapshotRequest},
			&stubGenerator{}, nil)
		out, _ := d.Process(context.Background(), textMsg("send a picture"), &ConversationContext{CameraID: "cam-1"})
		assert.Equal(t, models.MessagePhoto, out.Type)
		assert.Equal(t, "https://minio/snap.jpg", out.PhotoURL)
	})

	t.Run("snapshot failure degrades to text", func(t *testing.T) {
		d := NewDispatcher(
			&stubPerception{snapshotErr: errors.New("minio down")},
			&stubClassifier{intent: models.IntentSnapshotRequest},
			&stubGenerator{}, nil)
		out, _ := d.Process(context.Background(), textMsg("send a picture"), &ConversationContext{CameraID: "cam-1"})
		assert.Equal(t, "Unable to capture a snapshot right now.", out.Text)
	})
}

func TestDispatcherCannedIntents(t *testing.T) {
	cases := []struct {
		intent models.Intent
		want   string
	}{
		{models.IntentHelp, helpText},
		{models.IntentGreeting, "Hi there! How can I help with your home today?"},
		{models.IntentSettings, "Settings updates coming soon."},
		{models.IntentAlertAcknowledge, "Noted. Alert dismissed."},
	}
	for _, tc := range cases {
		d := newTestDispatcher(tc.intent, nil)
		out, intent := d.Process(context.Background(), textMsg("x"), &ConversationContext{})
		assert.Equal(t, tc.intent, intent)
		assert.Equal(t, tc.want, out.Text)
	}
}

func TestDispatcherEscalation(t *testing.T) {
	t.Run("denied by default", func(t *testing.T) {
		d := newTestDispatcher(models.IntentEscalationConfirm, nil)
		out, _ := d.Process(context.Background(), textMsg("yes escalate"), &ConversationContext{})
		assert.Equal(t, "Escalation is currently disabled.", out.Text)
	})

	t.Run("allowed by custom policy", func(t *testing.T) {
		d := newTestDispatcher(models.IntentEscalationConfirm, nil)
		d.SetEscalationPolicy(func(*models.Alert) bool { return true })
		out, _ := d.Process(context.Background(), textMsg("yes escalate"), &ConversationContext{})
		assert.Equal(t, "Escalation confirmed. Notifying your contacts.", out.Text)
	})
}

type deadlineClassifier struct {
	deadline time.Time
	ok       bool
}

func (c *deadlineClassifier) ClassifyIntent(ctx context.Context, _ string) (models.Intent, error) {
	c.deadline, c.ok = ctx.Deadline()
	return models.IntentHelp, nil
}

func TestDispatcherSetTimeout(t *testing.T) {
	cl := &deadlineClassifier{}
	d := NewDispatcher(&stubPerception{}, cl, &stubGenerator{}, nil)
	d.SetTimeout(5 * time.Second)

	start := time.Now()
	d.Process(context.Background(), textMsg("help"), &ConversationContext{})

	require.True(t, cl.ok, "collaborator context carries a deadline")
	assert.WithinDuration(t, start.Add(5*time.Second), cl.deadline, time.Second)

	t.Run("non-positive values keep the default", func(t *testing.T) {
		d := NewDispatcher(&stubPerception{}, cl, &stubGenerator{}, nil)
		d.SetTimeout(0)
		assert.Equal(t, 30*time.Second, d.timeout)
	})
}

func TestDispatcherFreeForm(t *testing.T) {
	t.Run("appends user and model turns", func(t *testing.T) {
		gen := &stubGenerator{reply: "The porch is empty."}
		d := newTestDispatcher(models.IntentUnknown, gen)
		conv := &ConversationContext{}

		out, intent := d.Process(context.Background(), textMsg("what's on the porch?"), conv)
		assert.Equal(t, models.IntentUnknown, intent)
		assert.Equal(t, "The porch is empty.", out.Text)

		require.Len(t, conv.History, 2)
		assert.Equal(t, Turn{Role: "user", Content: "what's on the porch?"}, conv.History[0])
		assert.Equal(t, Turn{Role: "model", Content: "The porch is empty."}, conv.History[1])
	})

	t.Run("generation failure keeps user turn and apologizes", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("api quota")}
		d := newTestDispatcher(models.IntentUnknown, gen)
		conv := &ConversationContext{}

		out, _ := d.Process(context.Background(), textMsg("hello?"), conv)
		assert.Equal(t, "Sorry, I'm having trouble answering right now. Please try again in a moment.", out.Text)

		require.Len(t, conv.History, 1)
		assert.Equal(t, "user", conv.History[0].Role)
	})

	t.Run("classification error falls through to free-form", func(t *testing.T) {
		gen := &stubGenerator{reply: "ok"}
		d := NewDispatcher(&stubPerception{},
			&stubClassifier{err: errors.New("classifier down")}, gen, nil)

		out, intent := d.Process(context.Background(), textMsg("hmm"), &ConversationContext{})
		assert.Equal(t, models.IntentUnknown, intent)
		assert.Equal(t, "ok", out.Text)
		assert.Equal(t, 1, gen.calls)
	})
}
