package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"httpAddr": ":9999",
		"redis": {"addr": "cache.internal:6379"},
		"housekeeping": {"reportOnly": false}
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.HTTPAddr)
	require.Equal(t, "cache.internal:6379", cfg.Redis.Addr)
	require.Equal(t, 2*time.Second, cfg.Redis.DialTimeout)
	require.False(t, cfg.Housekeeping.ReportOnly)
	require.Equal(t, 1000, cfg.Directory.PageSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	require.Error(t, err)
}
