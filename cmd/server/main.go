// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shortener/internal/cache"
	"shortener/internal/config"
	"shortener/internal/counter"
	"shortener/internal/domain"
	"shortener/internal/flusher"
	"shortener/internal/handler"
	postgresRepo "shortener/internal/repository/postgres"
	"shortener/internal/service"
	customLogger "shortener/pkg/logger"
)

// gormWriter wraps our custom logger to implement gorm's logger.Writer interface
type gormWriter struct {
	logger *customLogger.Logger
}

// Printf implements the logger.Writer interface
func (w *gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...))
}

func main() {
	// Simple health check for Docker - just make HTTP request to existing server
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		resp, err := http.Get("http://localhost:8081/health")
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load environment variables from .env file (development only)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Initialize structured logger
	appLogger := customLogger.NewLogger()
	appLogger.Info("Starting URL Shortener Service")

	// Load application configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", "error", err)
	}

	// Initialize database connection
	db, err := initDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", "error", err)
	}

	// Connect to Redis; the client is shared by the redirect cache and
	// the click buffer. If Redis is unreachable the service degrades:
	// resolution goes cache-less (always-miss) and clicks are buffered
	// in process memory instead.
	var redirectCache cache.Cache
	var clickBuffer counter.ClickBuffer

	redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLogger.Warn("Redis unavailable, degrading to store-only reads and in-process click buffer", "error", err)
		redirectCache = nil
		clickBuffer = counter.NewMemoryBuffer()
	} else {
		redirectCache = cache.NewRedisCache(redisClient)
		clickBuffer = counter.NewRedisBuffer(redisClient)
	}

	// Wire up the layers; the process owns exactly one instance of each
	// component and shares them via dependency injection
	urlRepo := postgresRepo.NewURLRepository(db)
	urlService := service.NewURLService(urlRepo, redirectCache, clickBuffer, cfg, appLogger)
	urlHandler := handler.NewURLHandler(urlService, appLogger)

	// Start the background jobs: the click flush and the expiry sweep
	jobCtx, stopJobs := context.WithCancel(context.Background())
	scheduler := flusher.NewScheduler(clickBuffer, urlRepo, appLogger, cfg.FlushInterval, cfg.FlushRetries, cfg.FlushBackoff)

	var jobs sync.WaitGroup
	jobs.Add(2)
	go func() {
		defer jobs.Done()
		scheduler.Run(jobCtx)
	}()
	go func() {
		defer jobs.Done()
		scheduler.RunExpirySweep(jobCtx, cfg.SweepInterval)
	}()

	// Setup HTTP router with middleware
	router := setupRouter(urlHandler, cfg, appLogger)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine for graceful shutdown
	go func() {
		appLogger.Info("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with 30 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	// Stop background jobs after the server so late requests still get
	// their clicks flushed by the scheduler's final drain
	stopJobs()
	jobs.Wait()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis connection", "error", err)
		}
	}

	appLogger.Info("Server exited successfully")
}

// initDatabase initializes the PostgreSQL database connection with connection pooling
func initDatabase(cfg *config.Config, log *customLogger.Logger) (*gorm.DB, error) {
	writer := &gormWriter{logger: log}

	gormLogger := gormlogger.New(
		writer, // Use our custom writer
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Connect to PostgreSQL with retry logic
	var db *gorm.DB
	var err error

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:                 gormLogger,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
			TranslateError:         true,
		})

		if err == nil {
			break
		}

		log.Warn("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	// Dev-time schema setup; production deployments manage schema out of band
	if err := db.AutoMigrate(&domain.URL{}, &domain.URLStats{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool for optimal performance
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established successfully")
	return db, nil
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(urlHandler *handler.URLHandler, cfg *config.Config, log *customLogger.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply global middleware
	router.Use(gin.Recovery()) // Panic recovery
	router.Use(handler.LoggerMiddleware(log))
	router.Use(handler.SecurityHeadersMiddleware())
	router.Use(handler.RateLimitMiddleware(cfg.RateLimitPerMinute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "url-shortener",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/shorten", urlHandler.ShortenURL)          // Create short URL
		v1.GET("/urls/:code/stats", urlHandler.GetStats)    // Get aggregated click statistics
	}

	// Short URL redirection (public endpoint)
	router.GET("/:code", urlHandler.Redirect)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "endpoint not found",
		})
	})

	return router
}
