package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/homewatch/internal/agent"
	"github.com/your-org/homewatch/internal/api/handlers"
	"github.com/your-org/homewatch/internal/api/ws"
	"github.com/your-org/homewatch/internal/auth"
	"github.com/your-org/homewatch/internal/queue"
	"github.com/your-org/homewatch/internal/storage"
	"github.com/your-org/homewatch/internal/transport"
)

type RouterConfig struct {
	APIKey     string
	DB         *storage.PostgresStore
	MinIO      *storage.MinIOStore
	Producer   *queue.Producer
	Hub        *ws.Hub
	Perception agent.Perception
	Dispatcher *agent.Dispatcher
	Gatekeeper *agent.Gatekeeper

	Telegram       transport.Transport
	WhatsApp       transport.Transport
	TelegramSecret string
	WhatsAppVerify string
	RulesPath      string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Chat platform webhooks (authenticated by platform secrets)
	webhookH := handlers.NewWebhookHandler(
		cfg.DB, cfg.Perception, cfg.Dispatcher, cfg.Gatekeeper,
		cfg.Telegram, cfg.WhatsApp,
		cfg.TelegramSecret, cfg.WhatsAppVerify,
	)
	r.POST("/webhooks/telegram", webhookH.Telegram)
	r.GET("/webhooks/whatsapp", webhookH.WhatsAppVerify)
	r.POST("/webhooks/whatsapp", webhookH.WhatsApp)

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Events
	eventH := handlers.NewEventHandler(cfg.DB, cfg.MinIO)
	v1.GET("/events", eventH.List)
	v1.GET("/events/:id", eventH.Get)
	v1.POST("/events/:id/ack", eventH.Acknowledge)
	v1.GET("/events/:id/snapshot", eventH.Snapshot)

	// Rules
	ruleH := handlers.NewRuleHandler(cfg.RulesPath, cfg.Producer)
	v1.GET("/rules", ruleH.List)
	v1.POST("/rules/reload", ruleH.Reload)

	return r
}
