package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/ndrctl/internal/bytesize"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.Transport.CallTimeout)
	assert.Equal(t, 4*bytesize.KiB, cfg.Transport.MaxMessagePayload)
	assert.Equal(t, `\RPC Control\epmapper`, cfg.Epmapper.PortName)
	assert.Equal(t, 10*time.Second, cfg.Epmapper.LookupTimeout)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Address)
	assert.False(t, cfg.Binding.PreferNDR64)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Transport: TransportConfig{CallTimeout: 5 * time.Second},
		Epmapper:  EpmapperConfig{PortName: `\RPC Control\custom`},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, 5*time.Second, cfg.Transport.CallTimeout)
	assert.Equal(t, `\RPC Control\custom`, cfg.Epmapper.PortName)
}

func TestDefaultConfigPathUnderXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgtest")
	assert.Equal(t, "/tmp/xdgtest/ndrctl/config.yaml", DefaultConfigPath())
}

func TestLoadWithoutConfigFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadParsesHumanReadableMaxMessagePayload(t *testing.T) {
	dir := t.TempDir()
	configPath := dir + "/ndrctl.yaml"
	assert.NoError(t, os.WriteFile(configPath, []byte("transport:\n  max_message_payload: 1Mi\n"), 0o644))

	cfg, err := Load(configPath)
	assert.NoError(t, err)
	assert.Equal(t, bytesize.MiB, cfg.Transport.MaxMessagePayload)
}
