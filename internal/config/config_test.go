package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsRunTheStockDemo(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Stream.Count != 500 {
		t.Errorf("Stream.Count = %d, want 500", cfg.Stream.Count)
	}
	if cfg.Detector.WindowSize != 50 {
		t.Errorf("Detector.WindowSize = %d, want 50", cfg.Detector.WindowSize)
	}
	if cfg.Detector.Threshold != 3.0 {
		t.Errorf("Detector.Threshold = %v, want 3.0", cfg.Detector.Threshold)
	}
	if cfg.Stream.SpikeProbability != 0.01 {
		t.Errorf("Stream.SpikeProbability = %v, want 0.01", cfg.Stream.SpikeProbability)
	}
	if cfg.Pipeline.Tick != 10*time.Millisecond {
		t.Errorf("Pipeline.Tick = %v, want 10ms", cfg.Pipeline.Tick)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want empty (network-free by default)", cfg.Metrics.Addr)
	}
	if !cfg.Render.Enabled {
		t.Error("Render.Enabled = false, want true")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load with absent file failed: %v", err)
	}
	if cfg.Stream.Count != 500 {
		t.Errorf("Stream.Count = %d, want default 500", cfg.Stream.Count)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
stream:
  count: 42
detector:
  windowSize: 7
  threshold: 2.5
render:
  enabled: false
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Stream.Count != 42 {
		t.Errorf("Stream.Count = %d, want 42", cfg.Stream.Count)
	}
	if cfg.Detector.WindowSize != 7 {
		t.Errorf("Detector.WindowSize = %d, want 7", cfg.Detector.WindowSize)
	}
	if cfg.Detector.Threshold != 2.5 {
		t.Errorf("Detector.Threshold = %v, want 2.5", cfg.Detector.Threshold)
	}
	if cfg.Render.Enabled {
		t.Error("Render.Enabled = true, want false")
	}
	// Untouched keys keep their defaults.
	if cfg.Stream.SpikeProbability != 0.01 {
		t.Errorf("Stream.SpikeProbability = %v, want default 0.01", cfg.Stream.SpikeProbability)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"zero count", "stream:\n  count: 0\n", ErrInvalidSampleCount},
		{"negative count", "stream:\n  count: -5\n", ErrInvalidSampleCount},
		{"bad spike probability", "stream:\n  spikeProbability: 2.0\n", ErrInvalidSpikeProbability},
		{"zero window", "detector:\n  windowSize: 0\n", ErrInvalidWindowSize},
		{"zero threshold", "detector:\n  threshold: 0\n", ErrInvalidThreshold},
		{"negative tick", "pipeline:\n  tick: -1s\n", ErrInvalidTick},
		{"zero buffer", "pipeline:\n  channelBuffer: 0\n", ErrInvalidChannelBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := Load(path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
