package render

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"
)

// ANSI cursor-home + erase-display, so each frame overdraws the previous one.
const clearScreen = "\x1b[H\x1b[2J"

// TermSink plots the stream and its anomalies as an in-place terminal chart.
// The data series is drawn in blue, anomalous points in red; NaN entries in
// the anomaly series render as gaps, keeping the two series aligned.
type TermSink struct {
	w      io.Writer
	height int
	width  int
}

// NewTermSink writes charts to w. height must be positive; width 0 lets the
// plot size itself to the series length.
func NewTermSink(w io.Writer, height, width int) *TermSink {
	if height <= 0 {
		height = 15
	}
	return &TermSink{w: w, height: height, width: width}
}

func (s *TermSink) Update(values, anomalies []float64, title string) error {
	opts := []asciigraph.Option{
		asciigraph.Height(s.height),
		asciigraph.Caption(title),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("data stream", "anomalies"),
	}
	if s.width > 0 {
		opts = append(opts, asciigraph.Width(s.width))
	}

	plot := asciigraph.PlotMany([][]float64{values, anomalies}, opts...)
	_, err := fmt.Fprint(s.w, clearScreen, plot, "\n")
	return err
}

// Close leaves the final frame on screen and moves past it.
func (s *TermSink) Close() error {
	_, err := fmt.Fprintln(s.w)
	return err
}
