// Package monitoring holds the process-level logger of the simulator and
// maps the configured log level onto the GTU log streams.
package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/banshee-data/trd-gtu/internal/gtu/pipeline"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// StreamWriters returns the GTU log streams enabled at level, all routed
// to w. "ops" enables the ops stream, "diag" adds diag and "trace" adds
// trace. An empty level means "ops".
func StreamWriters(level string, w io.Writer) (pipeline.LogWriters, error) {
	switch strings.ToLower(level) {
	case "", "ops":
		return pipeline.LogWriters{Ops: w}, nil
	case "diag":
		return pipeline.LogWriters{Ops: w, Diag: w}, nil
	case "trace":
		return pipeline.LogWriters{Ops: w, Diag: w, Trace: w}, nil
	default:
		return pipeline.LogWriters{}, fmt.Errorf("unknown log level %q", level)
	}
}

// ConfigureStreams applies StreamWriters(level, w) to the GTU packages.
func ConfigureStreams(level string, w io.Writer) error {
	writers, err := StreamWriters(level, w)
	if err != nil {
		return err
	}
	pipeline.SetLogWriters(writers)
	return nil
}
