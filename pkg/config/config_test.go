package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchDocumentedValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, 5000*time.Millisecond, cfg.AvailabilityInterval())
	require.Equal(t, 5, cfg.OfflineThreshold())
	require.Equal(t, 3000*time.Millisecond, cfg.PollingInterval())
	require.Equal(t, 5000*time.Millisecond, cfg.ClockPollingInterval())
	require.Equal(t, 8000*time.Millisecond, cfg.CommandTimeout())
	require.Equal(t, 1000*time.Millisecond, cfg.PostConnectSettle())
	require.Equal(t, 800*time.Millisecond, cfg.ProbeInterGap())
	require.Equal(t, 1000, cfg.CommandLogCapacity())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.OfflineThreshold())
}

func TestLoadAppliesOverridesAndLeavesOmittedAtDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "offline_threshold: 8\npolling_interval_ms: 2000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.OfflineThreshold())
	require.Equal(t, 2000*time.Millisecond, cfg.PollingInterval())
	require.Equal(t, 8000*time.Millisecond, cfg.CommandTimeout())
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: valid: yaml: ["), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSettersAreConcurrencySafe(t *testing.T) {
	cfg := Default()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			cfg.SetOfflineThreshold(i + 1)
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		_ = cfg.OfflineThreshold()
	}
	<-done
}

func TestFallbackPasswordHashRoundTrip(t *testing.T) {
	cfg := Default()
	require.Empty(t, cfg.FallbackPasswordHash())
	cfg.SetFallbackPasswordHash("$2a$10$abc")
	require.Equal(t, "$2a$10$abc", cfg.FallbackPasswordHash())
}
