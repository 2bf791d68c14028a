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
	"github.com/groceazy/backend/api-gateway/middlewares"
	"github.com/groceazy/backend/api-gateway/routes"
	"github.com/groceazy/backend/api-gateway/utils"
	"github.com/groceazy/backend/services/common/auth"
	"github.com/groceazy/backend/services/common/logger"
	"github.com/groceazy/backend/services/common/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.Initialize(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting API Gateway...")

	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.RatePerMinute), cfg.RatePerMinute, 10*time.Minute)
	defer limiter.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(limiter))
	r.Use(middlewares.JWTMiddleware(auth.NewVerifier(cfg.JWTSecret)))

	routes.RegisterAllRoutes(r, utils.NewForwarder(cfg.UpstreamTimeout, log), routes.Targets{
		ProductService:   cfg.ProductService,
		PromotionService: cfg.PromotionService,
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "api-gateway"})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("API Gateway listening on port", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	log.Info("API Gateway stopped")
}
