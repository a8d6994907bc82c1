package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kyc-service/internal/cache"
	"kyc-service/internal/config"
	"kyc-service/internal/handler"
	"kyc-service/internal/provider/aadhaarapi"
	"kyc-service/internal/rate"
	"kyc-service/internal/repository"
	"kyc-service/internal/service"
	"kyc-service/pkg/id"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// db connection
	dbpool, err := pgxpool.New(context.Background(), cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer dbpool.Close()

	// redis-backed correlation cache
	sessionCache := cache.NewCache([]string{cfg.RedisAddr}, cfg.RedisPass, false)
	defer sessionCache.Close()

	// snowflake
	sf, err := id.NewSnowflake(11)
	if err != nil {
		logger.Fatal("snowflake", zap.Error(err))
	}

	// components
	identityRepo := repository.NewIdentityRepo(dbpool)
	limiter := rate.NewLimiter(sessionCache, cfg.ResendCooldown)
	verifier := aadhaarapi.NewClient(cfg.VendorBaseURL, cfg.VendorAPIKey, cfg.VendorTimeout)
	kycSvc := service.NewKYCService(identityRepo, sessionCache, limiter, verifier, sf, logger, cfg.OTPSessionTTL)
	kycHandler := handler.NewKYCHandler(kycSvc, logger)

	// chi router
	r := chi.NewRouter()
	r.Use(kycHandler.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/kyc", func(r chi.Router) {
		r.Post("/aadhaar/otp", kycHandler.InitiateAadhaarOTP)
		r.Post("/aadhaar/verify", kycHandler.VerifyAadhaarOTP)
		r.Post("/aadhaar/resend", kycHandler.ResendAadhaarOTP)
		r.Post("/pan/verify", kycHandler.VerifyPAN)
		r.Post("/bank/verify", kycHandler.VerifyBank)
		r.Get("/status", kycHandler.GetKYCStatus)
		r.Get("/audit", kycHandler.GetKYCAuditLogs)
	})

	// HTTP server
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	// run server in goroutine
	go func() {
		logger.Info("KYC REST server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server shutdown", zap.Error(err))
	}
}
