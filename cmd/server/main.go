// Package main runs the agency platform HTTP server with the live notification feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agencyhub/backend/config"
	"github.com/agencyhub/backend/internal/agencies"
	"github.com/agencyhub/backend/internal/funnels"
	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/invitations"
	"github.com/agencyhub/backend/internal/media"
	"github.com/agencyhub/backend/internal/middleware"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/notifications"
	"github.com/agencyhub/backend/internal/pages"
	"github.com/agencyhub/backend/internal/pipelines"
	"github.com/agencyhub/backend/internal/realtime"
	"github.com/agencyhub/backend/internal/subaccounts"
	"github.com/agencyhub/backend/internal/users"
	"github.com/agencyhub/backend/pkg/database"
	"github.com/agencyhub/backend/pkg/queue"
	"github.com/agencyhub/backend/pkg/redis"
	"github.com/agencyhub/backend/pkg/response"
	"github.com/agencyhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var (
		uploader  media.Uploader
		presigner media.Presigner
	)
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			uploader, presigner = s3Client, s3Client
		}
	}

	idClient := identity.NewClient(
		cfg.Identity.APIURL,
		cfg.Identity.SecretKey,
		identity.NewSessionVerifier(cfg.Identity.JWTSecret),
		cfg.Identity.Timeout,
		logger,
	)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Repositories
	userRepo := users.NewRepository(pool)
	agencyRepo := agencies.NewRepository(pool)
	subRepo := subaccounts.NewRepository(pool)
	notificationRepo := notifications.NewRepository(pool)
	authz := subaccounts.NewAuthorizer(subRepo)

	// Users and tenancy
	userSvc := users.NewService(userRepo, agencyRepo, idClient, logger)
	userHandler := users.NewHandler(userSvc, logger)
	agencyHandler := agencies.NewHandler(agencies.NewService(agencyRepo, userRepo, logger), logger)
	subHandler := subaccounts.NewHandler(subaccounts.NewService(subRepo, userRepo, logger), logger)

	// Invitations and activity
	reconciler := invitations.NewReconciler(invitations.NewPgStore(pool), idClient, hub, logger)
	invitationHandler := invitations.NewHandler(reconciler, invitations.NewService(invitations.NewPgStore(pool), logger), logger)
	recorder := notifications.NewRecorder(notificationRepo, userRepo, subRepo, idClient, hub, logger)
	notificationHandler := notifications.NewHandler(recorder, notificationRepo, logger)

	// Sub-account workspaces
	pipelineHandler := pipelines.NewHandler(pipelines.NewService(pipelines.NewRepository(pool), authz), logger)
	funnelSvc := funnels.NewService(funnels.NewRepository(pool), authz)
	funnelHandler := funnels.NewHandler(funnelSvc, logger)
	mediaSvc := media.NewService(media.NewRepository(pool), subRepo, authz, jobQueue, presigner, logger)
	mediaHandler := media.NewHandler(mediaSvc, uploader, logger)

	pageHandler := pages.NewHandler(reconciler, idClient, userSvc, funnelSvc, logger)

	agencyManagers := middleware.RequireAgencyRole(userRepo, logger, models.RoleAgencyOwner, models.RoleAgencyAdmin)
	agencyMembers := middleware.RequireAgencyRole(userRepo, logger,
		models.RoleAgencyOwner, models.RoleAgencyAdmin, models.RoleSubAccountUser, models.RoleSubAccountGuest)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("database health check failed", zap.Error(err))
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Healthy(ctx); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Pages
	router.GET("/agency", pageHandler.AgencyLanding)
	router.GET("/subaccount", pageHandler.SubAccountLanding)
	router.GET("/site", pageHandler.Site)
	router.NoRoute(pageHandler.Domain)

	api := router.Group("/api")
	api.Use(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute).Handler())
	{
		api.GET("/me", userHandler.Me)
		api.POST("/users/init", userHandler.Init)
		api.GET("/users/:userId/permissions", userHandler.Permissions)

		api.POST("/invitations/accept", invitationHandler.Accept)
		api.POST("/notifications", notificationHandler.Create)

		api.PUT("/agencies", agencyHandler.Upsert)
		agency := api.Group("/agencies/:agencyId")
		{
			agency.PATCH("", agencyManagers, agencyHandler.Update)
			agency.DELETE("", agencyManagers, agencyHandler.Delete)
			agency.GET("/invitations", agencyManagers, invitationHandler.List)
			agency.POST("/invitations", agencyManagers, invitationHandler.Invite)
			agency.GET("/notifications", agencyMembers, notificationHandler.ListByAgency)
			agency.GET("/notifications/ws", agencyMembers, realtime.ServeWs(hub, logger))
		}

		api.PUT("/subaccounts", subHandler.Upsert)
		api.GET("/subaccounts/:subaccountId/media", mediaHandler.List)
		api.GET("/subaccounts/:subaccountId/funnels", funnelHandler.List)
		api.DELETE("/media/:mediaId", mediaHandler.Delete)
		api.GET("/media/:mediaId/download", mediaHandler.Download)
		api.POST("/uploadthing", mediaHandler.Upload)

		api.GET("/pipelines/:pipelineId", pipelineHandler.Get)
		api.GET("/pipelines/:pipelineId/tickets", pipelineHandler.Tickets)
		api.GET("/lanes/:laneId/tickets", pipelineHandler.LaneTickets)
	}

	gate, err := middleware.NewGate(idClient, publicRoutes(), logger)
	if err != nil {
		logger.Fatal("access gate", zap.Error(err))
	}
	resolver, err := middleware.NewTenantResolver(cfg.Tenant.BaseDomain)
	if err != nil {
		logger.Fatal("tenant resolver", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.Edge(router, gate, resolver, logger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("base_domain", cfg.Tenant.BaseDomain))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// publicRoutes adds the health probe to the gate's public routes.
func publicRoutes() []string {
	routes := make([]string, 0, len(middleware.DefaultPublicRoutes)+1)
	routes = append(routes, middleware.DefaultPublicRoutes...)
	return append(routes, "/health")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
