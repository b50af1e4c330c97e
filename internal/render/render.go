// Package render defines the sink contract the presentation loop draws
// through, plus a terminal implementation. The loop never depends on a
// specific graphics stack: anything that accepts two aligned series and
// redraws will do.
package render

// Sink receives, after every new point, the full ordered data series and an
// aligned anomaly series of equal length. Non-anomalous positions in the
// anomaly series hold math.NaN(). The title carries the running point and
// anomaly counts. Update is best-effort from the caller's perspective:
// errors are reported but must not corrupt anything upstream.
type Sink interface {
	Update(values, anomalies []float64, title string) error
	Close() error
}

// NopSink discards all updates. Used when rendering is disabled and in tests.
type NopSink struct{}

func (NopSink) Update(values, anomalies []float64, title string) error { return nil }

func (NopSink) Close() error { return nil }
