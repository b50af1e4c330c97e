package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spikelens/spikelens/internal/config"
)

// scriptNoise replays a fixed sequence for Gaussian(0,1) draws, then falls
// back to the mean. It makes the generated series fully predictable.
type scriptNoise struct {
	script []float64
	pos    int
}

func (s *scriptNoise) Gaussian(mean, stddev float64) float64 {
	if s.pos >= len(s.script) {
		return mean
	}
	v := s.script[s.pos]
	s.pos++
	return v
}

// recordSink captures the frames the loop pushes at it.
type recordSink struct {
	updates       int
	lastValues    []float64
	lastAnomalies []float64
	lastTitle     string
	failUpdates   bool
	closed        bool
}

func (s *recordSink) Update(values, anomalies []float64, title string) error {
	s.updates++
	s.lastValues = append([]float64(nil), values...)
	s.lastAnomalies = append([]float64(nil), anomalies...)
	s.lastTitle = title
	if s.failUpdates {
		return errors.New("sink unavailable")
	}
	return nil
}

func (s *recordSink) Close() error {
	s.closed = true
	return nil
}

func testConfig(count int) *config.Config {
	return &config.Config{
		Stream:   config.StreamConfig{Count: count, SpikeProbability: 0, Seed: 1},
		Detector: config.DetectorConfig{WindowSize: 5, Threshold: 1.5},
		Pipeline: config.PipelineConfig{Tick: 0, ChannelBuffer: 8},
	}
}

// spikeScript yields a flat-noise series whose sixth point carries a huge
// offset, making index 5 the single anomaly at threshold 1.5.
func spikeScript() *scriptNoise {
	return &scriptNoise{script: []float64{0, 0, 0, 0, 0, 1000}}
}

func TestPipelineFlagsSpike(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := &recordSink{}

	p, err := New(testConfig(6), sink, spikeScript(), zap.New(core))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	values, anomalies := p.Values(), p.Anomalies()
	if len(values) != 6 || len(anomalies) != 6 {
		t.Fatalf("series lengths = (%d, %d), want (6, 6)", len(values), len(anomalies))
	}
	if p.AnomalyCount() != 1 {
		t.Fatalf("AnomalyCount() = %d, want 1", p.AnomalyCount())
	}

	// Only index 5 is an anomaly; the rest hold the absence marker.
	for i := 0; i < 5; i++ {
		if !math.IsNaN(anomalies[i]) {
			t.Errorf("anomalies[%d] = %v, want NaN", i, anomalies[i])
		}
	}
	if anomalies[5] != values[5] {
		t.Errorf("anomalies[5] = %v, want %v", anomalies[5], values[5])
	}
	if values[5] != 1002.52 {
		t.Errorf("values[5] = %v, want 1002.52", values[5])
	}

	if sink.updates != 6 {
		t.Errorf("sink updates = %d, want 6", sink.updates)
	}
	if !sink.closed {
		t.Error("sink was not closed on completion")
	}
	wantTitle := "Real-time Data Stream with Anomaly Detection (points: 6, anomalies: 1)"
	if sink.lastTitle != wantTitle {
		t.Errorf("last title = %q, want %q", sink.lastTitle, wantTitle)
	}

	wantLine := fmt.Sprintf("Anomaly detected at X-axis %d & Y-axis %g", 5, values[5])
	found := false
	for _, entry := range logs.All() {
		if entry.Message == wantLine {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("anomaly log line %q not emitted", wantLine)
	}
}

// A failing sink must not change what the detector decides.
func TestPipelineSurvivesSinkFailure(t *testing.T) {
	sink := &recordSink{failUpdates: true}

	p, err := New(testConfig(6), sink, spikeScript(), zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned %v, want nil despite sink failures", err)
	}

	if p.AnomalyCount() != 1 {
		t.Errorf("AnomalyCount() = %d, want 1", p.AnomalyCount())
	}
	if sink.updates != 6 {
		t.Errorf("sink updates = %d, want 6 (updates keep flowing)", sink.updates)
	}
}

func TestPipelineConstructionValidation(t *testing.T) {
	badDetector := testConfig(6)
	badDetector.Detector.WindowSize = 0

	badStream := testConfig(6)
	badStream.Stream.Count = -1

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr error
	}{
		{"invalid detector", badDetector, ErrDetectorCreationFailed},
		{"invalid stream", badStream, ErrGeneratorCreationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, &recordSink{}, spikeScript(), zap.NewNop())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipelineCancellation(t *testing.T) {
	cfg := testConfig(100)
	cfg.Pipeline.Tick = time.Hour // park the loop in its pacing wait

	sink := &recordSink{}
	p, err := New(cfg, sink, &scriptNoise{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
	if !sink.closed {
		t.Error("sink was not closed on cancellation")
	}
}
