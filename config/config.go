// Package config provides types and functions for managing application
// configuration and network topology documents. Application settings
// layer compiled defaults, an optional TOML file and explicit CLI
// flags; topology documents describe a neuron graph and round-trip
// through JSON and YAML.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// ModeRun executes a topology file and feeds it input pulses.
	ModeRun = "run"
	// ModeConvert runs the built-in two-bit to one-hot converter demo.
	ModeConvert = "convert"
	// ModeValidate parses and validates a topology file without
	// running it.
	ModeValidate = "validate"
	// ModeExport dumps a monitoring database table to CSV.
	ModeExport = "export"
)

// SupportedModes lists all valid operation modes for the application.
var SupportedModes = []string{ModeRun, ModeConvert, ModeValidate, ModeExport}

// RuntimeParameters govern the channel fabric of a network.
type RuntimeParameters struct {
	// ChannelCapacity bounds every broadcast and monitoring channel.
	ChannelCapacity int `toml:"channel_capacity"`

	// GracefulShutdownMillis is how long the monitoring drainer keeps
	// accepting in-flight records after cancellation.
	GracefulShutdownMillis int `toml:"graceful_shutdown_millis"`

	// QuiescenceMillis is the settle interval used between feeding an
	// input and reading outputs or monitoring records.
	QuiescenceMillis int `toml:"quiescence_millis"`
}

// GracefulShutdownPeriod returns the drain grace as a duration.
func (rp RuntimeParameters) GracefulShutdownPeriod() time.Duration {
	return time.Duration(rp.GracefulShutdownMillis) * time.Millisecond
}

// QuiescencePeriod returns the settle interval as a duration.
func (rp RuntimeParameters) QuiescencePeriod() time.Duration {
	return time.Duration(rp.QuiescenceMillis) * time.Millisecond
}

// CLIConfig holds parameters that are typically set or overridden via
// command-line flags.
type CLIConfig struct {
	// Mode specifies the operation mode for the application.
	Mode string `toml:"mode"`

	// TopologyFile is the JSON or YAML network description for run and
	// validate modes.
	TopologyFile string `toml:"topology_file"`

	// DbPath is the SQLite database file collecting monitoring
	// records; empty disables persistence.
	DbPath string `toml:"db_path"`

	// Monitoring enables status record collection during a run.
	Monitoring bool `toml:"monitoring"`

	// Inputs are the pulse intensities fed to external input port 0 in
	// run mode, one pulse per entry.
	Inputs []int `toml:"inputs"`

	// Export settings for export mode.
	ExportTable  string `toml:"export_table"`
	ExportOutput string `toml:"export_output"`
}

// AppConfig is the top-level configuration structure.
type AppConfig struct {
	Runtime RuntimeParameters `toml:"runtime"`
	Cli     CLIConfig         `toml:"cli"`
}

// DefaultRuntimeParameters returns the compiled-in runtime defaults.
func DefaultRuntimeParameters() RuntimeParameters {
	return RuntimeParameters{
		ChannelCapacity:        5,
		GracefulShutdownMillis: 20,
		QuiescenceMillis:       1,
	}
}

// NewAppConfig builds an AppConfig from defaults, then an optional
// TOML file. CLI flag overrides are applied by the command layer.
func NewAppConfig(configFile string) (*AppConfig, error) {
	cfg := &AppConfig{
		Runtime: DefaultRuntimeParameters(),
		Cli:     CLIConfig{Mode: ModeRun},
	}
	if configFile != "" {
		path := filepath.Clean(configFile)
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks the AppConfig for consistency across modes.
func (ac *AppConfig) Validate() error {
	if ac.Runtime.ChannelCapacity <= 0 {
		return fmt.Errorf("channel_capacity must be positive, got %d", ac.Runtime.ChannelCapacity)
	}
	if ac.Runtime.GracefulShutdownMillis < 0 {
		return fmt.Errorf("graceful_shutdown_millis must be non-negative, got %d", ac.Runtime.GracefulShutdownMillis)
	}
	if ac.Runtime.QuiescenceMillis < 0 {
		return fmt.Errorf("quiescence_millis must be non-negative, got %d", ac.Runtime.QuiescenceMillis)
	}

	modeValid := false
	for _, m := range SupportedModes {
		if ac.Cli.Mode == m {
			modeValid = true
			break
		}
	}
	if !modeValid {
		return fmt.Errorf("invalid mode %q, supported modes are: %s", ac.Cli.Mode, strings.Join(SupportedModes, ", "))
	}

	switch ac.Cli.Mode {
	case ModeRun, ModeValidate:
		if strings.TrimSpace(ac.Cli.TopologyFile) == "" {
			return fmt.Errorf("topology file must be specified for mode %q", ac.Cli.Mode)
		}
	case ModeExport:
		if strings.TrimSpace(ac.Cli.DbPath) == "" {
			return fmt.Errorf("db path must be specified for mode %q", ac.Cli.Mode)
		}
		if ac.Cli.ExportTable != "NeuronStatuses" && ac.Cli.ExportTable != "PortStatuses" {
			return fmt.Errorf("invalid export table %q, must be 'NeuronStatuses' or 'PortStatuses'", ac.Cli.ExportTable)
		}
	}
	return nil
}
