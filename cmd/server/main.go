package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Server shutdown errors
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"shop_api/internal/api"        // Custom package for API handlers
	"shop_api/internal/config"     // Custom package for configuration
	"shop_api/internal/db"         // Database connection
	"shop_api/internal/middleware" // Custom package for middleware
	"shop_api/internal/service"    // Business services
	"shop_api/internal/store"      // Persistence
	"shop_api/internal/upload"     // Image storage
	"shop_api/internal/utils"      // JWT

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Metrics registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"github.com/sirupsen/logrus"                              // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Connect to the database
	conn, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client; caching and rate limiting are skipped without it
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logrus.Warn("REDIS_ADDR not set, caching and rate limiting disabled")
	}

	// Setup image storage
	var files upload.Storage
	uploadDir := ""
	switch cfg.StorageBackend {
	case "s3":
		files, err = upload.NewS3(context.Background(), upload.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		var local *upload.Local
		local, err = upload.NewLocal(cfg.UploadDir, cfg.BaseURL)
		if local != nil {
			files, uploadDir = local, local.Dir()
		}
	}
	if err != nil {
		logrus.Fatalf("failed to set up %s storage: %v", cfg.StorageBackend, err)
	}

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logrus.Fatalf("failed to set up tokens: %v", err)
	}

	// Wire services
	users := store.NewUserStore(conn)
	auth := service.NewAuthenticator(tokens, users)
	userSvc := service.NewUserService(users, auth, redisClient)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.NewRouter(api.Deps{
		Auth:           auth,
		Users:          userSvc,
		Profiles:       service.NewProfileService(store.NewProfileStore(conn), userSvc, upload.NewUploader(files, cfg.MaxUploadBytes)),
		Carts:          service.NewCartService(store.NewCartStore(conn), redisClient),
		Orders:         service.NewOrderService(store.NewOrderStore(conn), redisClient),
		Limiter:        middleware.NewRedisRateLimiter(redisClient),
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		Metrics:        middleware.NewMetrics(prometheus.DefaultRegisterer),
		MetricsHandler: promhttp.Handler(),
		RequestTimeout: cfg.RequestTimeout,
		UploadDir:      uploadDir,
		TrustedProxies: []string{"127.0.0.1"},
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.Infof("Server running on %s", cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	logrus.Info("Server stopped")
}
