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
	awspkg "github.com/groceazy/backend/pkg/aws"
	ddbpkg "github.com/groceazy/backend/pkg/dynamodb"
	"github.com/groceazy/backend/services/common/auth"
	"github.com/groceazy/backend/services/common/database"
	apperrors "github.com/groceazy/backend/services/common/errors"
	"github.com/groceazy/backend/services/common/logger"
	"github.com/groceazy/backend/services/common/middleware"
	"github.com/groceazy/backend/services/product-service/controllers"
	"github.com/groceazy/backend/services/product-service/repository"
	"github.com/groceazy/backend/services/product-service/routes"
	"github.com/groceazy/backend/services/product-service/services"
	"go.uber.org/zap"
)

const serviceName = "product-service"

func main() {
	ctx := context.Background()

	cfg, err := LoadConfig(ctx)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// --- Logging (CloudWatch shipping is optional) ---
	var log *zap.Logger
	if cw, cwErr := awspkg.NewCloudWatchLogsClient(ctx, serviceName); cwErr == nil && cw.IsEnabled() {
		log, err = logger.InitializeWithWriter(cfg.Env, cw)
	} else {
		log, err = logger.Initialize(cfg.Env)
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// --- AWS setup ---
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	ddbClient := ddbpkg.NewClient(awsCfg)
	if err := ddbpkg.EnsureTable(ctx, ddbClient, cfg.ProductsTable, repository.HashKey); err != nil {
		log.Fatal("Failed to ensure products table", zap.String("table", cfg.ProductsTable), zap.Error(err))
	}

	var metrics awspkg.MetricsRecorder
	if mc, mErr := awspkg.NewMetricsClient(ctx); mErr != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(mErr))
	} else {
		metrics = mc
	}

	var presigner services.ImagePresigner
	if cfg.ImagesBucket != "" {
		presigner = awspkg.NewUploadPresigner(awsCfg, cfg.ImagesBucket)
	} else {
		log.Warn("S3_BUCKET_IMAGES not set, image uploads disabled")
	}

	// --- Redis (analytics and offer cache; reads fall through without it) ---
	var cache services.Cache
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("Redis unavailable, product cache disabled", zap.Error(err))
	} else {
		cache = services.NewCacheManager(rdb, cfg.CacheTTL, cfg.OffersCacheTTL, log)
	}

	// --- Dependency injection ---
	productRepo := repository.NewDynamoAdapter(ddbClient, cfg.ProductsTable)
	offersClient := services.NewOffersClient(cfg.PromotionURL, cfg.PromotionTimeout)
	productService := services.NewProductService(productRepo, cache, offersClient, presigner, cfg.ImagesBaseURL, metrics, log)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		log.Warn("JWT_SECRET not set, trusting gateway identity headers")
	}

	// --- Offer events (drop cached offers as soon as promotion-service writes) ---
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if cfg.OfferEventsQueueURL != "" && cache != nil {
		consumer := awspkg.NewSQSConsumer(awsCfg, cfg.OfferEventsQueueURL, log)
		go func() {
			if err := consumer.StartPolling(consumerCtx, services.NewOfferEventHandler(cache, metrics, log)); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Offer events consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterProductRoutes(r,
		controllers.NewProductController(productService),
		controllers.NewPresignedURLHandler(productService),
		verifier,
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Product Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Product Service...")

	stopConsumer()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info("Product Service stopped gracefully")
}
