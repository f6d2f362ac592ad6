package monitoring

import (
	"bytes"
	"io"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// A nil logger must be a no-op, not a nil func.
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestStreamWriters(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		level            string
		ops, diag, trace bool
	}{
		{"", true, false, false},
		{"ops", true, false, false},
		{"DIAG", true, true, false},
		{"trace", true, true, true},
	}
	enabled := func(w io.Writer) bool { return w != nil }

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			w, err := StreamWriters(tt.level, &buf)
			if err != nil {
				t.Fatalf("StreamWriters(%q) failed: %v", tt.level, err)
			}
			if enabled(w.Ops) != tt.ops || enabled(w.Diag) != tt.diag || enabled(w.Trace) != tt.trace {
				t.Errorf("StreamWriters(%q) = ops:%t diag:%t trace:%t", tt.level,
					enabled(w.Ops), enabled(w.Diag), enabled(w.Trace))
			}
		})
	}

	if _, err := StreamWriters("loud", &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestConfigureStreams(t *testing.T) {
	if err := ConfigureStreams("verbose", io.Discard); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := ConfigureStreams("ops", nil); err != nil {
		t.Errorf("ConfigureStreams(ops, nil) failed: %v", err)
	}
}
