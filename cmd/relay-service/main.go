package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	assistHandler "chatx-backend/internal/handler/http/assist"
	authHandler "chatx-backend/internal/handler/http/auth"
	chatHandler "chatx-backend/internal/handler/http/chat"
	wsHandler "chatx-backend/internal/handler/ws"
	"chatx-backend/internal/middleware"
	cassandraRepo "chatx-backend/internal/repository/cassandra"
	postgresRepo "chatx-backend/internal/repository/postgres"
	redisRepo "chatx-backend/internal/repository/redis"
	assistService "chatx-backend/internal/service/assist"
	authService "chatx-backend/internal/service/auth"
	chatService "chatx-backend/internal/service/chat"
	"chatx-backend/pkg/config"
	"chatx-backend/pkg/database"
	"chatx-backend/pkg/jwt"
	"chatx-backend/pkg/logger"
	"chatx-backend/pkg/metrics"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.InitDefault()
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		logger.InitDefault()
	}
	defer logger.Sync()

	ctx := context.Background()

	// 1. JWT manager. Development falls back to a throwaway secret; Validate
	// already refused to start production without a real one.
	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = "dev-only-secret-do-not-use-in-production"
		logger.Warn("JWT_SECRET not set, using development fallback")
	}
	jwtManager := jwt.NewManager(jwtSecret, cfg.JWT.AccessTokenExpiry)

	// 2. PostgreSQL for accounts, with exponential backoff retry. Absent
	// Postgres means limited mode: the relay runs, accounts do not.
	db := connectPostgres(ctx, &cfg.Database)
	var userRepo *postgresRepo.UserRepository
	if db != nil {
		defer db.Close()
		userRepo = postgresRepo.NewUserRepository(db.Pool)
	}

	// 3. Cassandra for chat history, optional the same way
	var messageRepo *cassandraRepo.MessageRepository
	cassandraDB, err := database.NewCassandraDB(&cfg.Cassandra)
	if err != nil {
		logger.Warn("cassandra unavailable, running without chat history", zap.Error(err))
	} else {
		defer cassandraDB.Close()
		messageRepo = cassandraRepo.NewMessageRepository(cassandraDB.Session)
		logger.Info("connected to cassandra")
	}

	// 4. Redis presence mirror with degraded mode support
	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, presence mirror degraded", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}
	defer redisDB.Close()
	go redisDB.StartHealthCheck(ctx, 10*time.Second)
	presenceMirror := redisRepo.NewPresenceRepository(redisDB)

	// 5. Metrics
	appMetrics := metrics.NewMetrics(cfg.Server.ServiceName)
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// 6. Services
	var messageStore chatService.MessageStore
	if messageRepo != nil {
		messageStore = messageRepo
	}
	var contactStore chatService.ContactStore
	if userRepo != nil {
		contactStore = userRepo
	}
	spamClient := chatService.NewSpamClient(cfg.Spam.URL, cfg.Spam.Timeout)
	chatSvc := chatService.NewService(messageStore, contactStore, spamClient, appMetrics)
	assistSvc := assistService.NewService(cfg.Gemini)

	// 7. Transport hub
	hub := wsHandler.NewHub(chatSvc, presenceMirror, appMetrics)

	// 8. Handlers
	var contactLister chatHandler.ContactLister
	if userRepo != nil {
		contactLister = userRepo
	}
	chatHdlr := chatHandler.NewHandler(chatSvc, contactLister)
	assistHdlr := assistHandler.NewHandler(assistSvc)

	// 9. Router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetTrustedProxies(nil)

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(prometheusMiddleware.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": cfg.Server.ServiceName,
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": cfg.Server.ServiceName,
			"version": version,
		})
	})
	router.GET("/metrics", middleware.MetricsHandler(appMetrics))

	// Accounts only when Postgres is up
	if userRepo != nil {
		authSvc := authService.NewService(userRepo, jwtManager)
		authHdlr := authHandler.NewHandler(authSvc)
		router.POST("/register", authHdlr.Register)
		router.POST("/login", authHdlr.Login)
	} else {
		logger.Warn("accounts disabled: postgres unavailable")
	}

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(jwtManager))
	{
		protected.GET("/history", chatHdlr.History)
		protected.GET("/contacts", chatHdlr.Contacts)
	}

	router.POST("/summarize", assistHdlr.Summarize)
	router.POST("/translate", assistHdlr.Translate)

	// WebSocket transport
	router.GET("/ws", hub.ServeWS)

	// 10. Serve
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("relay service starting",
		zap.String("addr", addr),
		zap.String("environment", cfg.Server.Environment),
		zap.String("version", version))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// connectPostgres retries the initial connection with exponential backoff
// before giving up and letting the relay run in limited mode.
func connectPostgres(ctx context.Context, cfg *config.DatabaseConfig) *database.PostgresDB {
	const maxRetries = 5
	baseDelay := time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err := database.NewPostgresDB(ctx, cfg)
		if err == nil {
			logger.Info("connected to postgres", zap.Int("attempt", attempt))
			return db
		}

		if attempt == maxRetries {
			logger.Warn("postgres unavailable after retries, running in limited mode",
				zap.Int("attempts", maxRetries),
				zap.Error(err))
			return nil
		}

		delay := time.Duration(float64(baseDelay) * math.Pow(2, float64(attempt-1)))
		if delay > maxDelay {
			delay = maxDelay
		}
		logger.Warn("postgres connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		time.Sleep(delay)
	}
	return nil
}
