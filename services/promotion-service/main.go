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
	"github.com/groceazy/backend/services/common/auth"
	"github.com/groceazy/backend/services/common/database"
	apperrors "github.com/groceazy/backend/services/common/errors"
	"github.com/groceazy/backend/services/common/logger"
	"github.com/groceazy/backend/services/common/middleware"
	"github.com/groceazy/backend/services/promotion-service/controllers"
	"github.com/groceazy/backend/services/promotion-service/models"
	"github.com/groceazy/backend/services/promotion-service/repository"
	"github.com/groceazy/backend/services/promotion-service/routes"
	"github.com/groceazy/backend/services/promotion-service/services"
	"go.uber.org/zap"
)

const serviceName = "promotion-service"

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

	// --- Database ---
	db, err := database.ConnectPostgres(cfg.PostgresConfig, log, &models.Offer{}, &models.Coupon{})
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}

	// --- Redis (active offer cache; pricing still works without it) ---
	var offerCache services.ActiveOfferCache
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("Redis unavailable, active offers will not be cached", zap.Error(err))
	} else {
		offerCache = services.NewRedisOfferCache(rdb, cfg.OfferCacheTTL, log)
	}

	// --- AWS setup ---
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}
	snsClient := awspkg.NewSNSClient(awsCfg)

	var metrics awspkg.MetricsRecorder
	if mc, mErr := awspkg.NewMetricsClient(ctx); mErr != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(mErr))
	} else {
		metrics = mc
	}

	// --- Dependency injection ---
	offerRepo := repository.NewGormOfferRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)

	offerService := services.NewOfferService(offerRepo, offerCache, snsClient, cfg.PromotionSNSTopicARN, metrics, log)
	couponService := services.NewCouponService(couponRepo, snsClient, cfg.PromotionSNSTopicARN, metrics, log)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		log.Warn("JWT_SECRET not set, trusting gateway identity headers")
	}
	couponLimiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.CouponRatePerMinute), cfg.CouponRatePerMinute, 10*time.Minute)
	defer couponLimiter.Stop()

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

	routes.RegisterOfferRoutes(r, controllers.NewOfferController(offerService), verifier)
	routes.RegisterCouponRoutes(r, controllers.NewCouponController(couponService), verifier, couponLimiter)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Promotion Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	log.Info("Promotion Service stopped gracefully")
}
