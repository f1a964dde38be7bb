package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValidForConvertMode(t *testing.T) {
	cfg, err := NewAppConfig("")
	require.NoError(t, err)

	cfg.Cli.Mode = ModeConvert
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Runtime.ChannelCapacity)
	assert.Equal(t, 20, cfg.Runtime.GracefulShutdownMillis)
	assert.Equal(t, 1, cfg.Runtime.QuiescenceMillis)
}

func TestTomlFileOverridesRuntimeParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runen.toml")
	content := `
[runtime]
channel_capacity = 16
graceful_shutdown_millis = 50

[cli]
mode = "convert"
inputs = [1, 0, 1]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewAppConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 16, cfg.Runtime.ChannelCapacity)
	assert.Equal(t, 50, cfg.Runtime.GracefulShutdownMillis)
	assert.Equal(t, ModeConvert, cfg.Cli.Mode)
	assert.Equal(t, []int{1, 0, 1}, cfg.Cli.Inputs)
}

func TestMissingConfigFileFails(t *testing.T) {
	_, err := NewAppConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg, err := NewAppConfig("")
	require.NoError(t, err)
	cfg.Cli.Mode = "simulate"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresTopologyForRunMode(t *testing.T) {
	cfg, err := NewAppConfig("")
	require.NoError(t, err)
	cfg.Cli.Mode = ModeRun
	assert.Error(t, cfg.Validate())

	cfg.Cli.TopologyFile = "net.json"
	assert.NoError(t, cfg.Validate())
}

func TestValidateExportModeConstraints(t *testing.T) {
	cfg, err := NewAppConfig("")
	require.NoError(t, err)
	cfg.Cli.Mode = ModeExport
	assert.Error(t, cfg.Validate()) // missing db path

	cfg.Cli.DbPath = "run.db"
	cfg.Cli.ExportTable = "Weights"
	assert.Error(t, cfg.Validate()) // unknown table

	cfg.Cli.ExportTable = "PortStatuses"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadRuntimeParameters(t *testing.T) {
	cfg, err := NewAppConfig("")
	require.NoError(t, err)
	cfg.Cli.Mode = ModeConvert

	cfg.Runtime.ChannelCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg.Runtime.ChannelCapacity = 5
	cfg.Runtime.QuiescenceMillis = -1
	assert.Error(t, cfg.Validate())
}
