package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-home/config"
	"voice-home/internal/domain"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Transcript.Source)
	assert.Equal(t, ":8080", cfg.Transcript.HTTPAddr)
	assert.Equal(t, ":8081", cfg.API.Addr)
	assert.Equal(t, 0.8, cfg.Speech.Rate)
	assert.Equal(t, "voicehome", cfg.MQTT.Prefix)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "2s", cfg.Monitor.Interval)
	assert.Equal(t, 20, cfg.Monitor.Window)
	assert.Equal(t, domain.DefaultDevices(), cfg.Devices)
	assert.Equal(t, 10, cfg.History.Size)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_Devices(t *testing.T) {
	cfg, err := config.Parse([]byte(`
devices:
  - id: porch
    name: Porch Lamp
    type: light
`))
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, domain.Device{ID: "porch", Name: "Porch Lamp", Type: domain.DeviceTypeLight}, cfg.Devices[0])
}

func TestParse_RejectsDuplicateDevices(t *testing.T) {
	_, err := config.Parse([]byte(`
devices:
  - {id: a, name: One, type: light}
  - {id: a, name: Two, type: fan}
`))
	assert.ErrorContains(t, err, "duplicate device id")
}

func TestLoad_ExpandsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	cfgPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(envPath, []byte("VOICE_HOME_TEST_TOKEN=s3cret\n"), 0600))
	require.NoError(t, os.WriteFile(cfgPath, []byte("pushover:\n  token: ${VOICE_HOME_TEST_TOKEN}\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("VOICE_HOME_TEST_TOKEN") })

	cfg, err := config.Load(cfgPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Pushover.Token)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: debug\n"), 0600))

	cfg, err := config.Load(cfgPath, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.ErrorContains(t, err, "reading config file")
}

func TestDuration(t *testing.T) {
	d, err := config.Duration("3s", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = config.Duration("soon", time.Second)
	assert.Error(t, err)
	assert.Equal(t, time.Second, d)
}
