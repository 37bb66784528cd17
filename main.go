package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/saqibullah/health-risk-predictor/api"
	"github.com/saqibullah/health-risk-predictor/config"
	"github.com/saqibullah/health-risk-predictor/logger"
	"github.com/saqibullah/health-risk-predictor/ocr"
	"github.com/saqibullah/health-risk-predictor/predictor"
	"github.com/saqibullah/health-risk-predictor/risk"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("RISK_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	// Models are loaded once and shared read-only by every request.
	heart, err := predictor.Load(risk.Heart, cfg.Models.Heart)
	if err != nil {
		log.Error("Failed to load heart model", zap.Error(err))
		return err
	}
	diabetes, err := predictor.Load(risk.Diabetes, cfg.Models.Diabetes)
	if err != nil {
		log.Error("Failed to load diabetes model", zap.Error(err))
		return err
	}
	log.Info("Models loaded",
		zap.String("heart_source", cfg.Models.Heart.Source),
		zap.String("diabetes_source", cfg.Models.Diabetes.Source),
	)

	var runner ocr.Runner
	if cfg.OCR.Enabled {
		tess := ocr.Tesseract{Binary: cfg.OCR.Binary, Lang: cfg.OCR.Lang}
		if err := tess.Available(); err != nil {
			log.Warn("OCR disabled", zap.Error(err))
		} else {
			runner = tess
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(api.Options{
		Assessor:    risk.NewService(heart, diabetes),
		OCR:         runner,
		Logger:      log,
		Registry:    registry,
		FrontendURL: cfg.Server.FrontendURL,
		Models: map[string]string{
			risk.Heart:    cfg.Models.Heart.Source,
			risk.Diabetes: cfg.Models.Diabetes.Source,
		},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
