package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/handler"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/middleware"
	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

// Config holds router configuration
type Config struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	BasePath  string
	Validator auth.TokenValidator
	// S3Client may be nil; attachment uploads then fail with INTERNAL_ERROR
	S3Client       service.S3Client
	Hub            *realtime.Hub
	Realtime       realtime.ServerConfig
	AllowedOrigins []string
	// Gatherer serves /metrics; defaults to the prometheus default registry
	Gatherer prometheus.Gatherer
}

// Setup sets up the router with all routes
func Setup(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Hub == nil {
		cfg.Hub = realtime.NewHub(realtime.HubConfig{Metrics: cfg.Metrics, Logger: cfg.Logger})
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	metricsHandler := promhttp.Handler()
	if cfg.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	// Initialize repositories
	boardRepo := repository.NewBoardRepository(cfg.DB)
	columnRepo := repository.NewColumnRepository(cfg.DB)
	taskRepo := repository.NewTaskRepository(cfg.DB)
	commentRepo := repository.NewCommentRepository(cfg.DB)
	attachmentRepo := repository.NewAttachmentRepository(cfg.DB)
	activityRepo := repository.NewActivityRepository(cfg.DB)
	notificationRepo := repository.NewNotificationRepository(cfg.DB)
	scopeRepo := repository.NewScopeRepository(cfg.DB)

	// Initialize services
	boardService := service.NewBoardService(boardRepo, scopeRepo, cfg.Logger)
	columnService := service.NewColumnService(columnRepo, scopeRepo, activityRepo, cfg.Logger)
	taskService := service.NewTaskService(taskRepo, scopeRepo, activityRepo, notificationRepo, cfg.Metrics, cfg.Logger)
	commentService := service.NewCommentService(commentRepo, taskRepo, scopeRepo, activityRepo, notificationRepo, cfg.Metrics, cfg.Logger)
	attachmentService := service.NewAttachmentService(attachmentRepo, scopeRepo, cfg.S3Client, cfg.Logger)
	notificationService := service.NewNotificationService(notificationRepo, cfg.Logger)
	presenceService := service.NewPresenceService(cfg.Hub, scopeRepo, cfg.Logger)

	// Initialize handlers
	boardHandler := handler.NewBoardHandler(boardService, columnService)
	taskHandler := handler.NewTaskHandler(taskService)
	commentHandler := handler.NewCommentHandler(commentService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	presenceHandler := handler.NewPresenceHandler(presenceService)

	// Realtime
	eventRouter := realtime.NewRouter(cfg.Hub, service.NewRoomAuthorizer(scopeRepo), cfg.Metrics, cfg.Logger)
	wsServer := realtime.NewServer(cfg.Hub, eventRouter, cfg.Validator, cfg.Realtime, cfg.Logger)

	api := r.Group(cfg.BasePath)
	api.GET("/health", healthHandler.Health)
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 핸드셰이크에서 토큰을 직접 검증하므로 Auth 미들웨어 밖에 둔다
	api.GET("/ws", wsServer.HandleWebSocket)

	authenticated := api.Group("")
	authenticated.Use(middleware.Auth(cfg.Validator))
	{
		boards := authenticated.Group("/boards")
		{
			boards.GET("/:boardId", boardHandler.GetBoard)
			boards.POST("/:boardId/columns", boardHandler.CreateColumn)
		}

		columns := authenticated.Group("/columns")
		{
			columns.PATCH("/:columnId", boardHandler.UpdateColumn)
			columns.DELETE("/:columnId", boardHandler.DeleteColumn)
			columns.PUT("/:columnId/position", boardHandler.MoveColumn)
		}

		tasks := authenticated.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:taskId", taskHandler.GetTask)
			tasks.PATCH("/:taskId", taskHandler.UpdateTask)
			tasks.DELETE("/:taskId", taskHandler.DeleteTask)
			tasks.PUT("/:taskId/move", taskHandler.MoveTask)

			tasks.GET("/:taskId/comments", commentHandler.GetComments)
			tasks.POST("/:taskId/comments", commentHandler.CreateComment)

			tasks.POST("/:taskId/attachments/presigned-url", attachmentHandler.GeneratePresignedURL)
			tasks.POST("/:taskId/attachments", attachmentHandler.CreateAttachment)
			tasks.GET("/:taskId/attachments", attachmentHandler.GetAttachments)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		authenticated.GET("/organizations/:orgId/presence", presenceHandler.GetPresence)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Route not found",
			},
		})
	})

	return r
}
