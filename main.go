package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"community-service/internal/cache"
	"community-service/internal/config"
	"community-service/internal/db"
	igrpc "community-service/internal/grpc"
	"community-service/internal/handlers"
	"community-service/internal/logger"
	"community-service/internal/metrics"
	"community-service/internal/middleware"
	"community-service/internal/models"
	"community-service/internal/observability"
	"community-service/internal/permissions"
	"community-service/internal/rabbitmq"
	"community-service/internal/repositories"
	"community-service/internal/services"
	"community-service/internal/telemetry"
	"community-service/internal/ws"
)

func main() {
	envErr := godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT"))
	defer logger.Sync()
	if envErr != nil {
		logger.Info("no .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize tracing", err)
	}
	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterDomainMetrics()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", err)
	}
	defer database.Close()

	userRepo := repositories.NewUserRepository(database)
	friendRepo := repositories.NewFriendRepository(database)
	groupRepo := repositories.NewGroupRepository(database)
	membershipRepo := repositories.NewMembershipRepository(database)
	resourceRepo := repositories.NewResourceRepository(database)
	notificationRepo := repositories.NewNotificationRepository(database)
	referralRepo := repositories.NewReferralRepository(database)

	resolver := permissions.NewResolver(userRepo, membershipRepo, resourceRepo,
		cache.NewTTL[string, *models.User](cfg.PermissionCacheTTL))

	eventsPublisher := newPublisher(ctx, cfg.AMQPURL, cfg.EventsExchange)
	defer eventsPublisher.Close()
	logsPublisher := newPublisher(ctx, cfg.AMQPURL, cfg.LogsExchange)
	defer logsPublisher.Close()
	audit := telemetry.NewAuditEmitter(logsPublisher, cfg.ServiceName, cfg.Environment)

	hub := ws.NewHub()
	tombstones := services.NewTombstones(cfg.DeletionGrace)
	notificationService := services.NewNotificationService(notificationRepo, eventsPublisher, hub, cfg.DeepLinkScheme).
		WithTombstones(tombstones)
	friendshipService := services.NewFriendshipService(friendRepo, userRepo, notificationService).
		WithTombstones(tombstones)
	membershipService := services.NewMembershipService(membershipRepo, groupRepo, referralRepo, resolver, notificationService).
		WithTombstones(tombstones)
	referralService := services.NewReferralService(referralRepo, membershipRepo, userRepo, groupRepo, resolver, notificationService)
	userService := services.NewUserService(userRepo, resolver, notificationService, tombstones)
	statsService := services.NewStatsService(userRepo, groupRepo, membershipRepo)

	if _, err := igrpc.StartGRPCServer(ctx, cfg.GRPCAddr, database, cfg.HealthCheckEvery); err != nil {
		logger.Fatal("failed to start gRPC server", err)
	}

	userHandler := handlers.NewUserHandler(userService, hub, audit)
	friendHandler := handlers.NewFriendHandler(friendshipService, audit)
	permissionHandler := handlers.NewPermissionHandler(resolver)
	statsHandler := handlers.NewStatsHandler(statsService, resolver)
	membershipHandler := handlers.NewMembershipHandler(membershipService, referralService, audit)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	deepLinkHandler := handlers.NewDeepLinkHandler(cfg.DeepLinkScheme)

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName), middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/deeplinks/resolve", deepLinkHandler.Resolve)

	auth := r.Group("", middleware.JWTAuth(cfg.JWTSecret))
	auth.GET("/ws/notifications", hub.NotificationStream)

	auth.GET("/users/me", userHandler.GetMe)
	auth.DELETE("/users/me", userHandler.DeleteMe)
	auth.PUT("/users/:id/roles", userHandler.SetRoles)

	auth.GET("/friends", friendHandler.ListFriends)
	auth.GET("/friends/requests/incoming", friendHandler.ListIncoming)
	auth.GET("/friends/:user_id/status", friendHandler.Status)
	auth.POST("/friends/:user_id/request", friendHandler.SendRequest)
	auth.POST("/friends/:user_id/accept", friendHandler.Accept)
	auth.POST("/friends/:user_id/accept-rejected", friendHandler.AcceptRejected)
	auth.POST("/friends/:user_id/reject", friendHandler.Reject)
	auth.POST("/friends/:user_id/cancel", friendHandler.Cancel)
	auth.POST("/friends/:user_id/block", friendHandler.Block)
	auth.DELETE("/friends/:user_id", friendHandler.Remove)

	auth.POST("/permissions/check", permissionHandler.Check)

	admin := auth.Group("/admin/stats")
	admin.GET("/newcomers", statsHandler.Newcomers)
	admin.GET("/groups", statsHandler.Groups)
	admin.GET("/requests", statsHandler.Requests)
	admin.GET("/export", statsHandler.Export)

	auth.POST("/memberships/:id/approve", membershipHandler.Approve)
	auth.POST("/memberships/:id/archive", membershipHandler.Archive)
	auth.PUT("/memberships/:id/journey", membershipHandler.UpdateJourney)
	auth.PUT("/memberships/:id/role", membershipHandler.SetRole)
	auth.POST("/referrals", membershipHandler.CreateReferral)

	auth.GET("/notifications", notificationHandler.List)
	auth.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	auth.POST("/notifications/:id/read", notificationHandler.MarkRead)
	auth.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}
}

// newPublisher falls back to a no-op publisher so a missing broker never blocks startup.
func newPublisher(ctx context.Context, amqpURL, exchange string) rabbitmq.Publisher {
	if amqpURL == "" {
		logger.Warn("AMQP_URL not set; publishing disabled", "exchange", exchange)
		return rabbitmq.NewNoopPublisher()
	}
	pub, err := rabbitmq.NewPublisher(ctx, amqpURL, exchange)
	if err != nil {
		logger.Warn("failed to initialize RabbitMQ publisher", "exchange", exchange, "error", err)
		return rabbitmq.NewNoopPublisher()
	}
	return pub
}
