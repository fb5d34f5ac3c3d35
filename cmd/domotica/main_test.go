package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/infrastructure/config"
	"github.com/nerrad567/domotica-core/internal/infrastructure/logging"
)

// writeConfig writes a minimal config pointing at a database in a temp dir
// and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: "` + filepath.Join(dir, "domotica.db") + `"
  wal_mode: true
  busy_timeout: 5

api:
  host: "127.0.0.1"
  port: 18089

logging:
  level: error
  format: text
` + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "domotica", cmd.Use)

	for _, name := range []string{"serve", "migrate", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(configEnv, "")

	opts := &rootOptions{}
	path, explicit := opts.getConfigPath()
	assert.Equal(t, defaultConfigPath, path)
	assert.False(t, explicit)

	t.Setenv(configEnv, "/etc/domotica/config.yaml")
	path, explicit = opts.getConfigPath()
	assert.Equal(t, "/etc/domotica/config.yaml", path)
	assert.True(t, explicit)

	opts.configPath = "local.yaml"
	path, _ = opts.getConfigPath()
	assert.Equal(t, "local.yaml", path, "flag wins over environment")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv(configEnv, "")

	opts := &rootOptions{configPath: "/nonexistent/path/config.yaml"}
	_, _, err := opts.loadConfig()
	require.Error(t, err)
}

func TestLoadConfig_DefaultFallsBack(t *testing.T) {
	t.Setenv(configEnv, "")
	t.Chdir(t.TempDir())

	cfg, path, err := (&rootOptions{}).loadConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "domotica "+version), "got %q", out)
}

func TestMigrateCommands(t *testing.T) {
	t.Setenv(configEnv, "")
	path := writeConfig(t, "")

	out, err := execute(t, "--config", path, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.NotContains(t, out, "applied ")

	out, err = execute(t, "--config", path, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")

	out, err = execute(t, "--config", path, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "applied")
}

func TestServe_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "notify:\n  queue_size: 0\n")

	_, err := execute(t, "--config", path, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.queue_size")
}

func testApp(t *testing.T) *app {
	t.Helper()

	t.Setenv(configEnv, "")
	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)

	log := logging.NewWithWriter(cfg.Logging, "test", io.Discard)
	a, err := newApp(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func TestNewApp_WiresSinks(t *testing.T) {
	a := testApp(t)

	assert.Nil(t, a.mqtt, "MQTT is disabled by default")
	assert.Nil(t, a.influx, "InfluxDB is disabled by default")
	// audit + websocket hub
	assert.Equal(t, 2, a.dispatcher.Stats().Sinks)
	require.NoError(t, a.db.HealthCheck(context.Background()))
}

func TestApp_RunDrainsEventsOnShutdown(t *testing.T) {
	a := testApp(t)

	// Queued before run starts; must still be audited once run returns.
	a.dispatcher.Notify(catalog.NewEvent(catalog.RoomCreated, 1, map[string]any{"name": "Kitchen"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	var n int
	require.NoError(t, a.db.QueryRow("SELECT COUNT(*) FROM audit_logs").Scan(&n))
	assert.Equal(t, 1, n)
	assert.Equal(t, uint64(1), a.dispatcher.Stats().Delivered)
}
