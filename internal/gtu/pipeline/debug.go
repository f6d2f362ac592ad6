package pipeline

import (
	"io"
	"log"

	"github.com/banshee-data/trd-gtu/internal/gtu/l1tracklets"
	"github.com/banshee-data/trd-gtu/internal/gtu/l2zchannels"
	"github.com/banshee-data/trd-gtu/internal/gtu/l3tracks"
	"github.com/banshee-data/trd-gtu/internal/gtu/l4merge"
	"github.com/banshee-data/trd-gtu/internal/gtu/l5fit"
	"github.com/banshee-data/trd-gtu/internal/gtu/tmu"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams of the pipeline and
// of every GTU stage package. Pass nil for any writer to disable that
// stream. Call it before processing starts; it is not synchronised with
// running TMUs.
func SetLogWriters(w LogWriters) {
	opsLogger = newLogger("[pipeline] ", w.Ops)
	diagLogger = newLogger("[pipeline] ", w.Diag)
	traceLogger = newLogger("[pipeline] ", w.Trace)

	l1tracklets.SetLogWriters(w.Ops, w.Diag, w.Trace)
	l2zchannels.SetLogWriters(w.Ops, w.Diag, w.Trace)
	l3tracks.SetLogWriters(w.Ops, w.Diag, w.Trace)
	l4merge.SetLogWriters(w.Ops, w.Diag, w.Trace)
	l5fit.SetLogWriters(w.Ops, w.Diag, w.Trace)
	tmu.SetLogWriters(w.Ops, w.Diag, w.Trace)
}

// SetLegacyLogger routes all three streams to a single writer.
// Pass nil to disable all logging.
func SetLegacyLogger(w io.Writer) {
	SetLogWriters(LogWriters{Ops: w, Diag: w, Trace: w})
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// opsf logs to the ops stream (failed units, sink errors).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// diagf logs to the diag stream (per-event summaries).
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// tracef logs to the trace stream (per-unit scheduling).
func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
