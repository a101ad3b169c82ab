package taskmail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/taskmail/service/messaging"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "synchronized", mutate: func(c *Config) { c.Runtime.Discipline = DisciplineSynchronized }},
		{name: "bad discipline", mutate: func(c *Config) { c.Runtime.Discipline = "threaded" }, wantErr: "runtime.discipline"},
		{name: "no timeout", mutate: func(c *Config) { c.Runtime.ShutdownTimeout = 0 }, wantErr: "runtime.shutdownTimeout"},
		{name: "bad zone", mutate: func(c *Config) { c.Timer.Location = "Mars/Olympus" }, wantErr: "timer.location"},
		{name: "no event buffer", mutate: func(c *Config) { c.Events.Buffer = 0 }, wantErr: "events.buffer"},
		{name: "unknown event vendor", mutate: func(c *Config) { c.Events.Vendor = "kafka" }, wantErr: "events.vendor"},
		{name: "negative event retries", mutate: func(c *Config) { c.Events.MaxRetries = -1 }, wantErr: "events.maxRetries"},
		{name: "disabled events ignore buffer", mutate: func(c *Config) { c.Events.Enabled = false; c.Events.Buffer = 0 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
	var nilConfig *Config
	assert.NoError(t, nilConfig.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "taskmail.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
subtask: window-agg-3
runtime:
  discipline: synchronized
  shutdownTimeout: 5s
timer:
  location: Local
`), 0o644))
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("runtime:\n  discipline: threaded\n"), 0o644))
	malformed := filepath.Join(dir, "malformed.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("runtime: [\n"), 0o644))

	ctx := context.Background()
	config, err := LoadConfig(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "window-agg-3", config.Subtask)
	assert.Equal(t, DisciplineSynchronized, config.Runtime.Discipline)
	assert.Equal(t, 5*time.Second, config.Runtime.ShutdownTimeout)
	assert.Equal(t, "Local", config.Timer.Location)
	assert.True(t, config.Events.Enabled, "defaults survive for omitted sections")
	assert.Equal(t, 1024, config.Events.Buffer)
	assert.Equal(t, messaging.VendorMemory, config.Events.Vendor)

	_, err = LoadConfig(ctx, invalid)
	assert.ErrorContains(t, err, "runtime.discipline")
	_, err = LoadConfig(ctx, malformed)
	assert.ErrorContains(t, err, "failed to decode config")
	_, err = LoadConfig(ctx, filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load config")
}
