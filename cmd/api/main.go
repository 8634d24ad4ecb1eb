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

	"github.com/your-org/homewatch/internal/agent"
	"github.com/your-org/homewatch/internal/api"
	"github.com/your-org/homewatch/internal/api/ws"
	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/llm"
	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/notify"
	"github.com/your-org/homewatch/internal/observability"
	"github.com/your-org/homewatch/internal/perception"
	"github.com/your-org/homewatch/internal/queue"
	"github.com/your-org/homewatch/internal/storage"
	"github.com/your-org/homewatch/internal/transport"
	"github.com/your-org/homewatch/pkg/dto"
)

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

	slog.Info("starting homewatch API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

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

	// LLM collaborator (degrades to fallback replies when unconfigured)
	llmClient, err := llm.NewClient(context.Background(), cfg.Gemini)
	if err != nil {
		slog.Error("create gemini client", "error", err)
		os.Exit(1)
	}
	if !llmClient.Configured() {
		slog.Warn("gemini api key not set, free-form replies disabled")
	}

	// Conversation pipeline
	scenes := perception.NewStorePerception(db, minioStore)
	gatekeeper := agent.NewGatekeeper(nil)
	dispatcher := agent.NewDispatcher(scenes, llmClient, llmClient, nil)
	dispatcher.SetTimeout(cfg.Gemini.Timeout)

	// Chat transports
	telegram := transport.NewTelegram(cfg.Telegram.BotToken)
	whatsapp := transport.NewWhatsApp(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)

	notifier := notify.NewNotifier(gatekeeper, telegram, whatsapp)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Consume fired alerts: deliver to chat and broadcast over WS
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create alert consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeAlerts(ctx, "api-alerts", func(ctx context.Context, msg jetstream.Msg) error {
		var task models.AlertTask
		if err := json.Unmarshal(msg.Data(), &task); err != nil {
			slog.Error("unmarshal alert task", "error", err)
			return nil // Don't retry on unmarshal errors
		}

		if task.ChatID != "" {
			if err := notifier.Deliver(ctx, &task); err != nil {
				return fmt.Errorf("deliver alert %s: %w", task.EventID, err)
			}
		}

		hub.BroadcastEvent(&dto.WSEvent{
			Type:     "alert_fired",
			CameraID: task.CameraID,
			Data: dto.EventResponse{
				ID:        task.EventID,
				CameraID:  task.CameraID,
				RuleID:    task.RuleID,
				EventType: "alert",
				Severity:  string(task.Severity),
				Title:     task.RuleName,
				CreatedAt: task.FiredAt.Format(time.RFC3339),
			},
		})
		return nil
	})
	if err != nil {
		slog.Warn("start alert consumer", "error", err)
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:         cfg.Server.APIKey,
		DB:             db,
		MinIO:          minioStore,
		Producer:       producer,
		Hub:            hub,
		Perception:     scenes,
		Dispatcher:     dispatcher,
		Gatekeeper:     gatekeeper,
		Telegram:       telegram,
		WhatsApp:       whatsapp,
		TelegramSecret: cfg.Telegram.WebhookSecret,
		WhatsAppVerify: cfg.WhatsApp.VerifyToken,
		RulesPath:      cfg.Rules.Path,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
