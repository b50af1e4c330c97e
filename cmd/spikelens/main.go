package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spikelens/spikelens/internal/config"
	"github.com/spikelens/spikelens/internal/logging"
	"github.com/spikelens/spikelens/internal/pipeline"
	"github.com/spikelens/spikelens/internal/render"
	"github.com/spikelens/spikelens/internal/stream"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to the configuration file (optional; defaults run the stock demo)")
	logger     *zap.Logger
)

func main() {
	// Initialize Configuration
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	// Initialize Logger
	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Configuration loaded",
		"count", cfg.Stream.Count,
		"window_size", cfg.Detector.WindowSize,
		"threshold", cfg.Detector.Threshold,
	)

	// Initialize Collaborators
	noise := buildNoise(cfg.Stream.Seed)
	sink := buildSink(cfg.Render, os.Stdout)

	// Initialize Pipeline
	sugar.Info("Initializing pipeline...")
	pipe, err := pipeline.New(cfg, sink, noise, logger)
	if err != nil {
		sugar.Fatalw("Failed to initialize pipeline", "error", err)
	}
	sugar.Info("Demonstration pipeline initialized")

	// Handle Graceful Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		sugar.Infow("Received signal, initiating shutdown...", "signal", sig.String())
		cancel()
	}()

	// Run Pipeline
	sugar.Info("Starting demonstration pipeline...")
	runErr := pipe.Run(ctx)

	// Evaluate Pipeline Result
	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	var finalErrorField = zap.Skip()

	switch {
	case runErr == nil:
		sugar.Infow("Pipeline execution completed without error.",
			"points", len(pipe.Values()),
			"anomalies", pipe.AnomalyCount(),
		)
	case errors.Is(runErr, context.Canceled):
		sugar.Info("Pipeline execution cancelled (expected on shutdown).")
	default: // Unexpected error
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
		sugar.Errorw("Pipeline execution stopped unexpectedly", zap.Error(runErr))
	}

	finalMessage := fmt.Sprintf("Pipeline shutdown %s.", shutdownReason)
	logger.Log(finalLogLevel, finalMessage,
		zap.String("reason", shutdownReason),
		finalErrorField,
	)

	sugar.Info("spikelens finished.")
	if finalLogLevel == zapcore.ErrorLevel {
		_ = logger.Sync()
		os.Exit(1)
	}
}

// buildNoise wires the Gaussian source: fixed seed for reproducible runs,
// time-seeded otherwise.
func buildNoise(seed int64) stream.Noise {
	if seed != 0 {
		return stream.NewRandNoise(seed)
	}
	return stream.NewSystemNoise()
}

// buildSink selects the rendering sink for the presentation loop.
func buildSink(cfg config.RenderConfig, w io.Writer) render.Sink {
	if !cfg.Enabled {
		return render.NopSink{}
	}
	return render.NewTermSink(w, cfg.Height, cfg.Width)
}
