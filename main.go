package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/chart"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/config"
	qhttp "github.com/Pururutz/Aplikasi-Random-Forest-Ikan/http"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/logging"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/monitoring"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	configPath := config.Locate("config.yaml", filepath.Join("..", "config.yaml"))
	cfg, found, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	if !found {
		logger.Info("config file not found, using defaults", zap.String("path", configPath))
	}

	// 3. Artifacts and predictor
	if cfg.ML.ONNXLibrary != "" {
		ml.SetONNXLibraryPath(cfg.ML.ONNXLibrary)
	}
	store := ml.NewArtifactStore(cfg.StoreConfig(), logger)
	defer store.Close()

	predictor, err := predict.NewPredictor(store, cfg.ML.CacheSize, logger)
	if err != nil {
		logger.Fatal("failed to create predictor", zap.Error(err))
	}
	store.OnInvalidate(predictor.Purge)

	if cfg.ML.Watch {
		if err := store.Watch(); err != nil {
			logger.Warn("artifact watch disabled", zap.Error(err))
		}
	}
	metrics := monitoring.NewPredictionMetrics()
	// Missing artifacts are reported on every render, so startup continues.
	_, err = store.Load()
	metrics.SetArtifactsLoaded(err == nil)
	if err != nil {
		logger.Warn("artifacts not ready", zap.Error(err))
	}

	// 4. Start HTTP server
	chartOpts := chart.DefaultOptions()
	chartOpts.Width = cfg.Chart.Width
	chartOpts.Height = cfg.Chart.Height

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, qhttp.Dependencies{
		Predictor:    predictor,
		Artifacts:    store,
		Logger:       logger,
		ChartOptions: chartOpts,
		Metrics:      metrics,
	})
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
