package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/observability"
	"github.com/your-org/homewatch/internal/queue"
	"github.com/your-org/homewatch/internal/storage"
)

// sceneReport is the JSON a camera publishes to
// <base_topic>/<device_id>/scene. Snapshot carries an optional inline
// base64 JPEG; cameras that upload to the object store directly set
// snapshot_key instead.
type sceneReport struct {
	Timestamp   time.Time               `json:"timestamp"`
	Objects     []models.DetectedObject `json:"objects"`
	Motion      bool                    `json:"motion"`
	MotionScore *float64                `json:"motion_score,omitempty"`
	Snapshot    []byte                  `json:"snapshot,omitempty"`
	SnapshotKey string                  `json:"snapshot_key,omitempty"`
}

// Bridge subscribes camera scene topics and republishes validated
// reports to the NATS SCENES stream.
type Bridge struct {
	mqtt      *MQTTClient
	producer  *queue.Producer
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	baseTopic string
}

func NewBridge(mqttCli *MQTTClient, producer *queue.Producer, db *storage.PostgresStore, minio *storage.MinIOStore, baseTopic string) *Bridge {
	return &Bridge{
		mqtt:      mqttCli,
		producer:  producer,
		db:        db,
		minio:     minio,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
	}
}

// Run subscribes to all camera scene topics and blocks until the
// context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	topic := b.baseTopic + "/+/scene"
	err := b.mqtt.Subscribe(topic, 1, func(topic string, payload []byte) {
		if err := b.handleReport(ctx, topic, payload); err != nil {
			slog.Warn("drop scene report", "topic", topic, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	slog.Info("scene bridge started", "topic", topic)
	<-ctx.Done()
	return nil
}

func (b *Bridge) handleReport(ctx context.Context, topic string, payload []byte) error {
	deviceID, err := b.deviceFromTopic(topic)
	if err != nil {
		return err
	}

	var report sceneReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("parse scene report: %w", err)
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}

	camera, err := b.db.GetCameraByDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if camera == nil {
		return fmt.Errorf("unknown camera device %q", deviceID)
	}
	if err := b.db.TouchCameraHeartbeat(ctx, deviceID); err != nil {
		slog.Warn("touch camera heartbeat", "device_id", deviceID, "error", err)
	}

	snapshotKey := report.SnapshotKey
	if len(report.Snapshot) > 0 {
		key := fmt.Sprintf("snapshots/%s/%d.jpg", deviceID, report.Timestamp.UnixNano())
		if err := b.minio.PutSnapshot(ctx, key, report.Snapshot); err != nil {
			slog.Warn("store inline snapshot", "device_id", deviceID, "error", err)
		} else {
			snapshotKey = key
		}
	}

	task := models.SceneTask{
		CameraID:    deviceID,
		UserID:      camera.UserID,
		Timestamp:   report.Timestamp,
		Objects:     report.Objects,
		Motion:      report.Motion,
		MotionScore: report.MotionScore,
		SnapshotKey: snapshotKey,
	}
	if err := b.producer.PublishScene(ctx, deviceID, task); err != nil {
		return err
	}

	observability.ScenesIngested.WithLabelValues(deviceID).Inc()
	return nil
}

// deviceFromTopic extracts <device_id> from
// <base_topic>/<device_id>/scene.
func (b *Bridge) deviceFromTopic(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, b.baseTopic+"/")
	if !ok {
		return "", fmt.Errorf("topic %q outside base %q", topic, b.baseTopic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "scene" {
		return "", fmt.Errorf("unexpected topic shape %q", topic)
	}
	return parts[0], nil
}
