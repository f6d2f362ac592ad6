package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/trd-gtu/internal/gtu"
	"github.com/banshee-data/trd-gtu/internal/gtu/params"
)

// DefaultConfigPath is the path to the canonical GTU defaults file.
const DefaultConfigPath = "config/gtu.defaults.json"

// Log levels accepted by log_level, from least to most verbose.
const (
	LogLevelOps   = "ops"
	LogLevelDiag  = "diag"
	LogLevelTrace = "trace"
)

// GTUConfig is the run configuration of the GTU simulator. Omitted fields
// fall back to the defaults returned by the Get* methods, so partial
// files are safe.
type GTUConfig struct {
	// Track finder windows
	DeltaY     *int32 `json:"delta_y,omitempty"`
	DeltaAlpha *int32 `json:"delta_alpha,omitempty"`
	RefLayers  []int  `json:"ref_layers,omitempty"`

	// Fixed-point precision of the input unit
	BitExcessY     *uint `json:"bit_excess_y,omitempty"`
	BitExcessAlpha *uint `json:"bit_excess_alpha,omitempty"`
	BitExcessYProj *uint `json:"bit_excess_yproj,omitempty"`

	// Pipeline
	Workers       *int  `json:"workers,omitempty"` // 0 = one per CPU
	DumpTracklets *bool `json:"dump_tracklets,omitempty"`

	DatabasePath *string `json:"database_path,omitempty"` // empty = no persistence
	LogLevel     *string `json:"log_level,omitempty"`
}

func ptrInt32(v int32) *int32    { return &v }
func ptrUint(v uint) *uint       { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyGTUConfig returns a GTUConfig with all fields unset.
func EmptyGTUConfig() *GTUConfig {
	return &GTUConfig{}
}

// DefaultGTUConfig returns a GTUConfig with every field set to its
// default.
func DefaultGTUConfig() *GTUConfig {
	return &GTUConfig{
		DeltaY:         ptrInt32(params.DefaultDeltaY),
		DeltaAlpha:     ptrInt32(params.DefaultDeltaAlpha),
		RefLayers:      append([]int(nil), params.DefaultRefLayers...),
		BitExcessY:     ptrUint(params.DefaultBitExcessY),
		BitExcessAlpha: ptrUint(params.DefaultBitExcessAlpha),
		BitExcessYProj: ptrUint(params.DefaultBitExcessYProj),
		Workers:        ptrInt(0),
		DumpTracklets:  ptrBool(false),
		DatabasePath:   ptrString(""),
		LogLevel:       ptrString(LogLevelOps),
	}
}

// LoadGTUConfig loads a GTUConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadGTUConfig(path string) (*GTUConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyGTUConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *GTUConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/gtu/<pkg>/
		"../../../../" + DefaultConfigPath, // from internal/gtu/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadGTUConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *GTUConfig) Validate() error {
	if c.DeltaY != nil && *c.DeltaY <= 0 {
		return fmt.Errorf("%w: delta_y must be positive, got %d", gtu.ErrConfiguration, *c.DeltaY)
	}
	if c.DeltaAlpha != nil && *c.DeltaAlpha <= 0 {
		return fmt.Errorf("%w: delta_alpha must be positive, got %d", gtu.ErrConfiguration, *c.DeltaAlpha)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", gtu.ErrConfiguration, *c.Workers)
	}
	if c.LogLevel != nil {
		switch strings.ToLower(*c.LogLevel) {
		case "", LogLevelOps, LogLevelDiag, LogLevelTrace:
		default:
			return fmt.Errorf("%w: unknown log_level %q", gtu.ErrConfiguration, *c.LogLevel)
		}
	}
	return c.ParamsOptions().Validate()
}

// ParamsOptions returns the parameter table options of the configuration.
func (c *GTUConfig) ParamsOptions() params.Options {
	return params.Options{
		DeltaY:         c.GetDeltaY(),
		DeltaAlpha:     c.GetDeltaAlpha(),
		RefLayers:      c.GetRefLayers(),
		BitExcessY:     c.GetBitExcessY(),
		BitExcessAlpha: c.GetBitExcessAlpha(),
		BitExcessYProj: c.GetBitExcessYProj(),
	}
}

// GetDeltaY returns the delta_y value or the default.
func (c *GTUConfig) GetDeltaY() int32 {
	if c.DeltaY == nil {
		return params.DefaultDeltaY
	}
	return *c.DeltaY
}

// GetDeltaAlpha returns the delta_alpha value or the default.
func (c *GTUConfig) GetDeltaAlpha() int32 {
	if c.DeltaAlpha == nil {
		return params.DefaultDeltaAlpha
	}
	return *c.DeltaAlpha
}

// GetRefLayers returns a copy of ref_layers or the default order.
func (c *GTUConfig) GetRefLayers() []int {
	if len(c.RefLayers) == 0 {
		return append([]int(nil), params.DefaultRefLayers...)
	}
	return append([]int(nil), c.RefLayers...)
}

// GetBitExcessY returns the bit_excess_y value or the default.
func (c *GTUConfig) GetBitExcessY() uint {
	if c.BitExcessY == nil {
		return params.DefaultBitExcessY
	}
	return *c.BitExcessY
}

// GetBitExcessAlpha returns the bit_excess_alpha value or the default.
func (c *GTUConfig) GetBitExcessAlpha() uint {
	if c.BitExcessAlpha == nil {
		return params.DefaultBitExcessAlpha
	}
	return *c.BitExcessAlpha
}

// GetBitExcessYProj returns the bit_excess_yproj value or the default.
func (c *GTUConfig) GetBitExcessYProj() uint {
	if c.BitExcessYProj == nil {
		return params.DefaultBitExcessYProj
	}
	return *c.BitExcessYProj
}

// GetWorkers returns the workers value or 0 (one per CPU).
func (c *GTUConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetDumpTracklets returns the dump_tracklets value or the default.
func (c *GTUConfig) GetDumpTracklets() bool {
	if c.DumpTracklets == nil {
		return false // default: no dump
	}
	return *c.DumpTracklets
}

// GetDatabasePath returns the database_path value or "".
func (c *GTUConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetLogLevel returns the lower-cased log_level value or the default.
func (c *GTUConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return LogLevelOps
	}
	return strings.ToLower(*c.LogLevel)
}

// JSON returns the configuration with all defaults filled in, as stored
// with each persisted run.
func (c *GTUConfig) JSON() (string, error) {
	full := &GTUConfig{
		DeltaY:         ptrInt32(c.GetDeltaY()),
		DeltaAlpha:     ptrInt32(c.GetDeltaAlpha()),
		RefLayers:      c.GetRefLayers(),
		BitExcessY:     ptrUint(c.GetBitExcessY()),
		BitExcessAlpha: ptrUint(c.GetBitExcessAlpha()),
		BitExcessYProj: ptrUint(c.GetBitExcessYProj()),
		Workers:        ptrInt(c.GetWorkers()),
		DumpTracklets:  ptrBool(c.GetDumpTracklets()),
		DatabasePath:   ptrString(c.GetDatabasePath()),
		LogLevel:       ptrString(c.GetLogLevel()),
	}
	data, err := json.Marshal(full)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(data), nil
}
