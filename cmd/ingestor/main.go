package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/ingest"
	"github.com/your-org/homewatch/internal/observability"
	"github.com/your-org/homewatch/internal/queue"
	"github.com/your-org/homewatch/internal/storage"
)

func cleanupSnapshots(ctx context.Context, db *storage.PostgresStore, minio *storage.MinIOStore, retention int) {
	cameras, err := db.ListCameras(ctx)
	if err != nil {
		slog.Warn("cleanup: list cameras", "error", err)
		return
	}
	for _, cam := range cameras {
		prefix := fmt.Sprintf("snapshots/%s/", cam.DeviceID)
		keys, err := minio.ListObjects(ctx, prefix)
		if err != nil {
			slog.Warn("cleanup: list objects", "prefix", prefix, "error", err)
			continue
		}
		if len(keys) <= retention {
			continue
		}
		toDelete := keys[:len(keys)-retention]
		if err := minio.DeleteObjects(ctx, toDelete); err != nil {
			slog.Warn("cleanup: delete objects", "prefix", prefix, "error", err)
			continue
		}
		slog.Info("cleanup: deleted old snapshots", "device_id", cam.DeviceID, "deleted", len(toDelete), "remaining", retention)
	}
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting homewatch ingestor", "broker", cfg.MQTT.Host, "base_topic", cfg.MQTT.BaseTopic)

	// Connect to Postgres (camera registry and heartbeats)
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Connect to MinIO (snapshot storage)
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Error("ensure minio bucket", "error", err)
		os.Exit(1)
	}

	// Connect to the MQTT broker
	mqttCli, err := ingest.NewMQTTClient(cfg.MQTT)
	if err != nil {
		slog.Error("connect to mqtt broker", "error", err)
		os.Exit(1)
	}
	defer mqttCli.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := ingest.NewBridge(mqttCli, producer, db, minioStore, cfg.MQTT.BaseTopic)

	errCh := make(chan error, 1)
	go func() {
		errCh <- bridge.Run(ctx)
	}()

	// Snapshot cleanup goroutine
	if cfg.MinIO.SnapshotRetention > 0 {
		slog.Info("snapshot cleanup enabled", "retention", cfg.MinIO.SnapshotRetention)
		go func() {
			ticker := time.NewTicker(60 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					cleanupSnapshots(ctx, db, minioStore, cfg.MinIO.SnapshotRetention)
				}
			}
		}()
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("ingestor metrics listening", "addr", ":8081")
		if err := http.ListenAndServe(":8081", mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Wait for shutdown signal or bridge failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down ingestor...")
	case err := <-errCh:
		if err != nil {
			slog.Error("scene bridge failed", "error", err)
		}
	}

	cancel()
	time.Sleep(time.Second)
	slog.Info("ingestor stopped")
}
