package stream

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/spikelens/spikelens/internal/config"
)

var (
	ErrInvalidCount            = errors.New("count must be a positive integer")
	ErrInvalidSpikeProbability = errors.New("spike probability must be within [0, 1]")
	ErrNilNoise                = errors.New("noise source must not be nil")
)

// Sample is a single point of the synthetic series. Index is the 0-based
// position in the stream; Value is rounded to 2 decimal places.
type Sample struct {
	Index int
	Value float64
}

// Generator produces a finite synthetic series: a sine seasonal component,
// a slight linear trend, unit Gaussian noise, and occasional large spikes.
// A Generator emits its sequence once; build a fresh one to regenerate.
type Generator struct {
	count     int
	spikeProb float64
	noise     Noise
	coin      *rand.Rand
	logger    *zap.Logger
}

// NewGenerator validates the stream configuration eagerly, before any values
// are produced.
func NewGenerator(cfg config.StreamConfig, noise Noise, logger *zap.Logger) (*Generator, error) {
	if cfg.Count <= 0 {
		return nil, ErrInvalidCount
	}
	if cfg.SpikeProbability < 0 || cfg.SpikeProbability > 1 {
		return nil, ErrInvalidSpikeProbability
	}
	if noise == nil {
		return nil, ErrNilNoise
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &Generator{
		count:     cfg.Count,
		spikeProb: cfg.SpikeProbability,
		noise:     noise,
		coin:      rand.New(rand.NewSource(seed)),
		logger:    logger,
	}

	logger.Info("Generator initialized",
		zap.Int("count", cfg.Count),
		zap.Float64("spike_probability", cfg.SpikeProbability),
	)
	return g, nil
}

// Run emits exactly count samples in index order on out, then returns nil.
// It returns the context error if cancelled mid-stream. The channel is owned
// by the caller and is not closed here.
func (g *Generator) Run(ctx context.Context, out chan<- Sample) error {
	sugar := g.logger.Sugar()
	sugar.Info("Starting sample generator loop...")
	defer sugar.Info("Sample generator loop stopped.")

	for i := 0; i < g.count; i++ {
		select {
		case out <- Sample{Index: i, Value: g.sampleAt(i)}:

		case <-ctx.Done():
			sugar.Debugw("Context cancelled while emitting sample", "index", i, zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
	return nil
}

// sampleAt computes the value for index i: sin(i*0.05)*10 + i*0.01 + N(0,1),
// plus an N(50,10) spike with probability spikeProb, rounded to 2 decimals.
func (g *Generator) sampleAt(i int) float64 {
	season := math.Sin(float64(i)*0.05) * 10
	trend := float64(i) * 0.01
	value := season + trend + g.noise.Gaussian(0, 1)

	if g.coin.Float64() < g.spikeProb {
		value += g.noise.Gaussian(50, 10)
	}
	return round2(value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
