package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/params"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultGTUConfig(t *testing.T) {
	cfg := DefaultGTUConfig()

	if cfg.DeltaY == nil || *cfg.DeltaY != 39 {
		t.Errorf("Expected DeltaY 39, got %v", cfg.DeltaY)
	}
	if cfg.DeltaAlpha == nil || *cfg.DeltaAlpha != 31 {
		t.Errorf("Expected DeltaAlpha 31, got %v", cfg.DeltaAlpha)
	}
	if !reflect.DeepEqual(cfg.RefLayers, []int{3, 2, 1}) {
		t.Errorf("Expected RefLayers [3 2 1], got %v", cfg.RefLayers)
	}
	if cfg.GetLogLevel() != LogLevelOps {
		t.Errorf("GetLogLevel() = %q, want %q", cfg.GetLogLevel(), LogLevelOps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	// The default slice must not alias the package default.
	cfg.RefLayers[0] = 5
	if params.DefaultRefLayers[0] != 3 {
		t.Errorf("DefaultGTUConfig aliases params.DefaultRefLayers")
	}
}

func TestEmptyConfigGetters(t *testing.T) {
	cfg := EmptyGTUConfig()

	if got := cfg.GetDeltaY(); got != params.DefaultDeltaY {
		t.Errorf("GetDeltaY() = %d, want %d", got, params.DefaultDeltaY)
	}
	if got := cfg.GetDeltaAlpha(); got != params.DefaultDeltaAlpha {
		t.Errorf("GetDeltaAlpha() = %d, want %d", got, params.DefaultDeltaAlpha)
	}
	if got := cfg.GetBitExcessY(); got != params.DefaultBitExcessY {
		t.Errorf("GetBitExcessY() = %d, want %d", got, params.DefaultBitExcessY)
	}
	if got := cfg.GetBitExcessAlpha(); got != params.DefaultBitExcessAlpha {
		t.Errorf("GetBitExcessAlpha() = %d, want %d", got, params.DefaultBitExcessAlpha)
	}
	if got := cfg.GetBitExcessYProj(); got != params.DefaultBitExcessYProj {
		t.Errorf("GetBitExcessYProj() = %d, want %d", got, params.DefaultBitExcessYProj)
	}
	if got := cfg.GetWorkers(); got != 0 {
		t.Errorf("GetWorkers() = %d, want 0", got)
	}
	if cfg.GetDumpTracklets() {
		t.Errorf("GetDumpTracklets() = true, want false")
	}
	if got := cfg.GetDatabasePath(); got != "" {
		t.Errorf("GetDatabasePath() = %q, want empty", got)
	}
}

func TestLoadGTUConfig(t *testing.T) {
	path := writeConfig(t, "gtu.json", `{
  "delta_y": 20,
  "ref_layers": [2, 3],
  "workers": 4,
  "dump_tracklets": true,
  "database_path": "/tmp/gtu.db",
  "log_level": "TRACE"
}`)

	cfg, err := LoadGTUConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetDeltaY() != 20 {
		t.Errorf("GetDeltaY() = %d, want 20", cfg.GetDeltaY())
	}
	// Omitted field falls back to the default.
	if cfg.GetDeltaAlpha() != params.DefaultDeltaAlpha {
		t.Errorf("GetDeltaAlpha() = %d, want default", cfg.GetDeltaAlpha())
	}
	if cfg.GetWorkers() != 4 {
		t.Errorf("GetWorkers() = %d, want 4", cfg.GetWorkers())
	}
	if !cfg.GetDumpTracklets() {
		t.Errorf("GetDumpTracklets() = false, want true")
	}
	if cfg.GetDatabasePath() != "/tmp/gtu.db" {
		t.Errorf("GetDatabasePath() = %q", cfg.GetDatabasePath())
	}
	if cfg.GetLogLevel() != LogLevelTrace {
		t.Errorf("GetLogLevel() = %q, want %q", cfg.GetLogLevel(), LogLevelTrace)
	}

	opts := cfg.ParamsOptions()
	if opts.DeltaY != 20 || !reflect.DeepEqual(opts.RefLayers, []int{2, 3}) {
		t.Errorf("ParamsOptions() = %+v", opts)
	}
	if _, err := params.NewDefaultTable(opts); err != nil {
		t.Errorf("NewDefaultTable(ParamsOptions()) failed: %v", err)
	}
}

func TestLoadGTUConfigMissing(t *testing.T) {
	if _, err := LoadGTUConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadGTUConfigInvalidJSON(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"delta_y": `)
	if _, err := LoadGTUConfig(path); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestLoadGTUConfigRejectsNonJSON(t *testing.T) {
	path := writeConfig(t, "gtu.yaml", "delta_y: 3\n")
	_, err := LoadGTUConfig(path)
	if err == nil || !strings.Contains(err.Error(), ".json extension") {
		t.Errorf("Expected extension error, got %v", err)
	}
}

func TestLoadGTUConfigRejectsLargeFile(t *testing.T) {
	big := `{"database_path": "` + strings.Repeat("x", 1024*1024) + `"}`
	path := writeConfig(t, "big.json", big)
	_, err := LoadGTUConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *GTUConfig
	}{
		{"zero delta_y", &GTUConfig{DeltaY: ptrInt32(0)}},
		{"negative delta_alpha", &GTUConfig{DeltaAlpha: ptrInt32(-1)}},
		{"negative workers", &GTUConfig{Workers: ptrInt(-2)}},
		{"reference layer out of range", &GTUConfig{RefLayers: []int{3, 6}}},
		{"duplicate reference layer", &GTUConfig{RefLayers: []int{3, 3}}},
		{"bit excess too large", &GTUConfig{BitExcessAlpha: ptrUint(40)}},
		{"unknown log level", &GTUConfig{LogLevel: ptrString("verbose")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, gtu.ErrConfiguration) {
				t.Errorf("Expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	want := DefaultGTUConfig()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("config/gtu.defaults.json differs from DefaultGTUConfig():\n got %+v\nwant %+v", cfg, want)
	}
}

func TestConfigJSON(t *testing.T) {
	cfg := &GTUConfig{DeltaY: ptrInt32(12)}
	out, err := cfg.JSON()
	if err != nil {
		t.Fatalf("JSON() failed: %v", err)
	}
	for _, want := range []string{`"delta_y":12`, `"delta_alpha":31`, `"ref_layers":[3,2,1]`, `"log_level":"ops"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON() = %s, missing %s", out, want)
		}
	}
}
