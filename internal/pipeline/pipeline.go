// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spikelens/spikelens/internal/config"
	"github.com/spikelens/spikelens/internal/detector"
	"github.com/spikelens/spikelens/internal/render"
	"github.com/spikelens/spikelens/internal/stream"
)

// Pipeline drives the demonstration: a generator goroutine feeds samples over
// a buffered channel to the presentation loop, which classifies each point,
// accumulates the aligned display series, and pushes every frame to the sink.
// Samples are consumed strictly in generation order; the detector's window
// eviction depends on it.
type Pipeline struct {
	cfg       *config.Config
	generator *stream.Generator
	detector  *detector.Detector
	sink      render.Sink
	logger    *zap.Logger

	samples chan stream.Sample

	values       []float64
	anomalies    []float64 // value at anomalous indices, NaN elsewhere
	anomalyCount int
}

// New creates and wires up a new demonstration pipeline. Construction fails
// fast on invalid stream or detector parameters, before any data is produced.
func New(cfg *config.Config, sink render.Sink, noise stream.Noise, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	generatorInstance, err := stream.NewGenerator(cfg.Stream, noise, logger.Named("generator"))
	if err != nil {
		initLogger.Error("Failed to create generator", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGeneratorCreationFailed, err)
	}

	detectorInstance, err := detector.New(cfg.Detector.WindowSize, cfg.Detector.Threshold)
	if err != nil {
		initLogger.Error("Failed to create detector", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDetectorCreationFailed, err)
	}

	p := &Pipeline{
		cfg:       cfg,
		generator: generatorInstance,
		detector:  detectorInstance,
		sink:      sink,
		logger:    logger.Named("pipeline"),
		samples:   make(chan stream.Sample, cfg.Pipeline.ChannelBuffer),
		values:    make([]float64, 0, cfg.Stream.Count),
		anomalies: make([]float64, 0, cfg.Stream.Count),
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.Int("count", cfg.Stream.Count),
		zap.Int("window_size", cfg.Detector.WindowSize),
		zap.Float64("threshold", cfg.Detector.Threshold),
	)
	return p, nil
}

// Run executes the pipeline until the sample stream is exhausted or the
// context is cancelled. It returns nil on normal completion, the context
// error on cancellation, and a wrapped component error otherwise.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Pipeline Run: Starting components...")

	if p.cfg.Metrics.Addr != "" {
		stopMetrics := p.startMetricsServer()
		defer stopMetrics()
	}

	var wg sync.WaitGroup
	genErr := make(chan error, 1)
	wg.Add(1)
	go p.runGenerator(ctx, &wg, genErr)

	runErr := p.present(ctx)

	sugar.Debug("Pipeline Run: Waiting on WaitGroup...")
	wg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if runErr == nil {
		select {
		case runErr = <-genErr:
		default:
		}
	}
	return runErr
}

// runGenerator executes the generator component in a goroutine. Closing the
// sample channel is what lets the presentation loop terminate normally.
func (p *Pipeline) runGenerator(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.samples)
		p.logger.Debug("Sample channel closed")
	}()

	p.logger.Debug("Starting generator goroutine...")
	err := p.generator.Run(ctx, p.samples)
	switch {
	case err == nil:
		p.logger.Debug("Generator goroutine finished normally")
	case errors.Is(err, context.Canceled):
		p.logger.Debug("Generator goroutine cancelled gracefully")
		errCh <- err
	default:
		p.logger.Error("Generator component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrGeneratorRunFailed, err)
	}
}

// present pulls samples in order, classifies each one, extends the display
// series, redraws, and pauses one tick.
func (p *Pipeline) present(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Starting presentation loop...")

	defer func() {
		if err := p.sink.Close(); err != nil {
			sugar.Warnw("Failed to finalize rendering sink", zap.Error(err))
		}
		sugar.Info("Presentation loop stopped.")
	}()

	for {
		select {
		case sample, ok := <-p.samples:
			if !ok {
				sugar.Infow("Sample stream exhausted",
					"points", len(p.values),
					"anomalies", p.anomalyCount,
				)
				return nil
			}
			p.process(sample)
			if err := p.pace(ctx); err != nil {
				return err
			}

		case <-ctx.Done():
			sugar.Debug("Context cancelled while waiting for sample.", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
}

// process classifies one sample and forwards the accumulated frame to the
// sink. Sink failures are logged and swallowed: rendering is best-effort and
// must not disturb detector state.
func (p *Pipeline) process(sample stream.Sample) {
	sugar := p.logger.Sugar()

	isAnomaly := p.detector.Detect(sample.Value)

	p.values = append(p.values, sample.Value)
	if isAnomaly {
		p.anomalyCount++
		p.anomalies = append(p.anomalies, sample.Value)
		sugar.Infof("Anomaly detected at X-axis %d & Y-axis %g", sample.Index, sample.Value)
		anomaliesDetectedTotal.Inc()
	} else {
		p.anomalies = append(p.anomalies, math.NaN())
	}

	samplesProcessedTotal.Inc()
	setGauge(windowMean, p.detector.Mean())
	setGauge(windowStdDev, p.detector.StdDev())
	setGauge(lastZScore, p.detector.LastZ())
	windowFill.Set(float64(p.detector.WindowLen()))

	title := fmt.Sprintf("Real-time Data Stream with Anomaly Detection (points: %d, anomalies: %d)",
		len(p.values), p.anomalyCount)
	if err := p.sink.Update(p.values, p.anomalies, title); err != nil {
		sugar.Warnw("Rendering sink update failed",
			zap.Error(err),
			zap.Int("index", sample.Index),
		)
	}
}

// pace waits one configured tick between points so the incremental redraw is
// visible. A zero tick disables pacing.
func (p *Pipeline) pace(ctx context.Context) error {
	if p.cfg.Pipeline.Tick <= 0 {
		return nil
	}
	timer := time.NewTimer(p.cfg.Pipeline.Tick)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startMetricsServer exposes the Prometheus registry when configured. The
// returned stop function shuts the listener down with a bounded deadline.
func (p *Pipeline) startMetricsServer() func() {
	sugar := p.logger.Sugar()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              p.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		sugar.Infow("Metrics listener started", "addr", p.cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorw("Metrics listener failed", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("Metrics listener shutdown error", zap.Error(err))
		}
	}
}

// Values returns the accumulated data series so far.
func (p *Pipeline) Values() []float64 { return p.values }

// Anomalies returns the accumulated anomaly series (NaN at normal indices),
// always the same length as Values.
func (p *Pipeline) Anomalies() []float64 { return p.anomalies }

// AnomalyCount returns the number of points flagged so far.
func (p *Pipeline) AnomalyCount() int { return p.anomalyCount }
