// @title           Collab PM API
// @version         1.0
// @description     실시간 협업 프로젝트 관리 API (보드, 태스크, 댓글, 알림, 프레즌스)
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/afnanahmadtariq/collab-pm/docs" // Swagger docs import

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/client"
	"github.com/afnanahmadtariq/collab-pm/internal/config"
	"github.com/afnanahmadtariq/collab-pm/internal/database"
	"github.com/afnanahmadtariq/collab-pm/internal/job"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/router"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Collab PM API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.Bool("fanout", cfg.Realtime.Fanout),
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database (컨테이너 기동 순서를 고려해 재시도)
	db, err := database.NewWithRetry(rootCtx, database.Config{
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, 10, 3*time.Second, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}()
	logger.Info("Database connected successfully")

	if err := database.AutoMigrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.Info("Database migrations completed")

	// Initialize metrics
	m := metrics.NewWithLogger(logger)
	if err := database.RegisterMetricsCallbacks(db, m); err != nil {
		logger.Warn("Failed to register database metrics callbacks", zap.Error(err))
	}
	statsDone := database.StartDBStatsCollector(db, m, 15*time.Second)
	defer close(statsDone)
	logger.Info("Metrics initialized")

	// Redis (선택): 프레즌스 저장소와 인스턴스 간 fanout
	redisClient, err := database.NewRedis(rootCtx, database.RedisConfig{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory presence", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	hubConfig := realtime.HubConfig{
		InstanceID: uuid.NewString(),
		Metrics:    m,
		Logger:     logger,
	}
	var presenceStore realtime.PresenceStore
	if redisClient != nil {
		presenceStore = realtime.NewRedisPresenceStore(redisClient, logger)
		if cfg.Realtime.Fanout {
			hubConfig.Fanout = realtime.NewRedisFanout(redisClient, logger)
		}
	} else {
		presenceStore = realtime.NewMemoryPresenceStore()
		if cfg.Realtime.Fanout {
			logger.Warn("realtime.fanout requires redis, running as a single instance")
		}
	}
	hubConfig.Presence = presenceStore
	hub := realtime.NewHub(hubConfig)
	go func() {
		if err := hub.Run(rootCtx); err != nil && rootCtx.Err() == nil {
			logger.Error("Realtime fanout stopped", zap.Error(err))
		}
	}()

	// Initialize S3 client
	var s3Client service.S3Client
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		c, err := client.NewS3Client(&cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, attachment features may be limited", zap.Error(err))
		} else {
			s3Client = c
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Warn("S3 configuration incomplete, attachment features disabled")
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	// Background jobs
	scheduler := job.NewScheduler(logger)
	if err := scheduler.Add("presence-sweep", cfg.Jobs.PresenceSweepCron,
		job.NewPresenceSweepJob(presenceStore, cfg.Jobs.PresenceRetention, logger)); err != nil {
		logger.Fatal("Failed to schedule presence sweep", zap.Error(err))
	}
	if err := scheduler.Add("board-stats", cfg.Jobs.BoardStatsCron,
		job.NewBoardStatsJob(repository.NewBoardRepository(db), repository.NewTaskRepository(db), hub, m, logger)); err != nil {
		logger.Fatal("Failed to schedule board stats", zap.Error(err))
	}
	scheduler.Start()

	// Setup router with all dependencies
	r := router.Setup(router.Config{
		DB:        db,
		Redis:     redisClient,
		Logger:    logger,
		Metrics:   m,
		BasePath:  cfg.Server.BasePath,
		Validator: jwtManager,
		S3Client:  s3Client,
		Hub:       hub,
		Realtime: realtime.ServerConfig{
			SendBuffer:     cfg.Realtime.SendBuffer,
			WriteWait:      cfg.Realtime.WriteWait,
			PongWait:       cfg.Realtime.PongWait,
			MaxMessageSize: cfg.Realtime.MaxMessageSize,
			AllowedOrigins: cfg.Realtime.AllowedOrigins,
		},
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Collab PM API started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)
	stop()

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
