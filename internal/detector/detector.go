// Package detector implements sliding-window z-score anomaly detection.
//
// A Detector keeps the last windowSize values in a bounded FIFO window and,
// on every insertion, recomputes the population mean and standard deviation
// of the window contents. A value is anomalous when its absolute z-score
// against those statistics exceeds the configured threshold. The value being
// classified is part of its own window, so a lone spike is judged against
// statistics it has already inflated.
package detector

import (
	"errors"
	"math"

	"github.com/gammazero/deque"
	"github.com/montanaflynn/stats"
)

var (
	ErrInvalidWindowSize = errors.New("windowSize must be a positive integer")
	ErrInvalidThreshold  = errors.New("threshold must be a positive number")
)

// Detector is a stateful, single-owner transformer: no internal locking, no
// I/O, and deterministic output for a given call history.
type Detector struct {
	windowSize int
	threshold  float64

	window deque.Deque[float64]
	mean   float64
	std    float64
	lastZ  float64
}

// New builds a Detector. windowSize and threshold must both be positive.
func New(windowSize int, threshold float64) (*Detector, error) {
	if windowSize <= 0 {
		return nil, ErrInvalidWindowSize
	}
	if threshold <= 0 {
		return nil, ErrInvalidThreshold
	}

	d := &Detector{
		windowSize: windowSize,
		threshold:  threshold,
	}
	d.window.SetBaseCap(windowSize)
	return d, nil
}

// Detect appends value to the window, evicting the oldest entry when the
// window is full, refreshes the rolling statistics, and reports whether the
// value is anomalous. When the standard deviation is zero (fewer than two
// samples, or a perfectly uniform window) the judgment is skipped and the
// value is never flagged.
//
// Any float64 is accepted. Non-finite inputs propagate through the window
// statistics: a NaN in the window yields NaN statistics, every z-score
// comparison involving them is false, and nothing is flagged until the NaN
// leaves the window.
func (d *Detector) Detect(value float64) bool {
	d.window.PushBack(value)
	if d.window.Len() > d.windowSize {
		d.window.PopFront()
	}
	d.updateStatistics()

	if d.std == 0 {
		d.lastZ = 0
		return false
	}

	d.lastZ = (value - d.mean) / d.std
	return math.Abs(d.lastZ) > d.threshold
}

// updateStatistics recomputes population mean and standard deviation over the
// current window contents. With fewer than two samples the statistics keep
// their zero-value convention.
func (d *Detector) updateStatistics() {
	if d.window.Len() <= 1 {
		return
	}

	values := make([]float64, d.window.Len())
	for i := range values {
		values[i] = d.window.At(i)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return
	}
	std, err := stats.StdDevP(values)
	if err != nil {
		return
	}
	d.mean, d.std = mean, std
}

// Mean returns the mean of the current window (0 until two samples arrive).
func (d *Detector) Mean() float64 { return d.mean }

// StdDev returns the population standard deviation of the current window.
func (d *Detector) StdDev() float64 { return d.std }

// LastZ returns the z-score computed by the most recent Detect call, or 0
// when the judgment was skipped.
func (d *Detector) LastZ() float64 { return d.lastZ }

// WindowLen returns the number of samples currently held, at most windowSize.
func (d *Detector) WindowLen() int { return d.window.Len() }

// WindowSize returns the configured capacity.
func (d *Detector) WindowSize() int { return d.windowSize }

// Threshold returns the configured z-score threshold.
func (d *Detector) Threshold() float64 { return d.threshold }
