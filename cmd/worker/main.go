package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/homewatch/internal/agent"
	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/observability"
	"github.com/your-org/homewatch/internal/queue"
	"github.com/your-org/homewatch/internal/storage"
)

const workerCount = 4

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

	slog.Info("starting homewatch rule worker", "workers", workerCount)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Load rules and build the evaluator
	rules, err := config.LoadRules(cfg.Rules.Path)
	if err != nil {
		slog.Error("load rules", "path", cfg.Rules.Path, "error", err)
		os.Exit(1)
	}
	evaluator := agent.NewEvaluator(rules, nil)
	slog.Info("rule set loaded", "rules", len(rules))

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	// Re-read the rule file when the API broadcasts a reload
	reloadSub, err := consumer.SubscribeRulesReload(func() {
		fresh, err := config.LoadRules(cfg.Rules.Path)
		if err != nil {
			slog.Error("reload rules", "path", cfg.Rules.Path, "error", err)
			return
		}
		evaluator.ReplaceRules(fresh)
		slog.Info("rule set reloaded", "rules", len(fresh))
	})
	if err != nil {
		slog.Warn("subscribe rules reload", "error", err)
	} else {
		defer reloadSub.Drain()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start consuming scene tasks
	err = consumer.ConsumeScenes(ctx, "rule-workers", func(ctx context.Context, msg jetstream.Msg) error {
		var task models.SceneTask
		if err := json.Unmarshal(msg.Data(), &task); err != nil {
			slog.Error("unmarshal scene task", "error", err)
			return nil // Don't retry on unmarshal errors
		}
		return processScene(ctx, db, producer, evaluator, task)
	}, workerCount)
	if err != nil {
		slog.Error("start scene consumer", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", ":8082")
		if err := http.ListenAndServe(":8082", mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Periodically report queue depth
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := producer.QueueDepth(ctx)
				if err == nil {
					observability.QueueDepth.Set(float64(depth))
				}
			}
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}

// processScene persists the scene, evaluates the rule set against it
// and publishes an alert task when a rule fires.
func processScene(ctx context.Context, db *storage.PostgresStore, producer *queue.Producer, evaluator *agent.Evaluator, task models.SceneTask) error {
	scene := &models.Scene{
		CameraID:    task.CameraID,
		Timestamp:   task.Timestamp,
		Objects:     task.Objects,
		Motion:      task.Motion,
		MotionScore: task.MotionScore,
		SnapshotKey: task.SnapshotKey,
	}
	if err := db.CreateScene(ctx, scene); err != nil {
		return fmt.Errorf("persist scene: %w", err)
	}

	evalCtx := agent.EvalContext{UserStatus: models.StatusHome}
	user, err := db.GetUser(ctx, task.UserID)
	if err != nil {
		slog.Warn("lookup user for evaluation", "user_id", task.UserID, "error", err)
	} else if user != nil {
		evalCtx.UserStatus = user.Status
	}

	alert := evaluator.Evaluate(scene, evalCtx)
	if alert == nil {
		return nil
	}

	event := &models.Event{
		UserID:      task.UserID,
		CameraID:    task.CameraID,
		SceneID:     &scene.ID,
		RuleID:      alert.RuleID,
		EventType:   "alert",
		Severity:    alert.Severity,
		Title:       alert.RuleName,
		Description: describeAlert(alert),
	}
	if err := db.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("persist event: %w", err)
	}

	chatID := ""
	var platform models.Platform
	if user != nil {
		chatID = user.ChatID
		platform = user.Platform
	}
	alertTask := models.AlertTask{
		EventID:  event.ID,
		UserID:   task.UserID,
		ChatID:   chatID,
		Platform: platform,
		CameraID: task.CameraID,
		RuleID:   alert.RuleID,
		RuleName: alert.RuleName,
		Severity: alert.Severity,
		Scene:    scene,
		FiredAt:  alert.FiredAt,
	}
	if err := producer.PublishAlert(ctx, task.CameraID, alertTask); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	slog.Info("alert fired",
		"rule_id", alert.RuleID,
		"severity", alert.Severity,
		"camera_id", task.CameraID,
	)
	return nil
}

func describeAlert(alert *models.Alert) string {
	if alert.Scene == nil || len(alert.Scene.Objects) == 0 {
		return "Motion detected"
	}
	desc := "Detected:"
	for _, obj := range alert.Scene.Objects {
		desc += " " + obj.Type
	}
	return desc
}
