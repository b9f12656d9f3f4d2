package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, "0.0.0.0:5000", c.Addr())
	require.Equal(t, int64(16<<20), c.MaxUploadBytes())
	require.Equal(t, 5, c.PreviewRows)
	require.Equal(t, 600, c.ChartHeight)
	require.Equal(t, []string{"*"}, c.CORSAllowedOrigins)
	require.Equal(t, "stdout", c.LogOutput)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	c.Port = 8088
	c.PreviewRows = 3
	c.LogFormat = "console"
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8088, got.Port)
	require.Equal(t, 3, got.PreviewRows)
	require.Equal(t, "console", got.LogFormat)
	require.Equal(t, 16, got.MaxUploadMB)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\nmax_upload_mb: 2\n"), 0o644))
	t.Setenv("TABVIZ_PORT", "7100")

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7100, got.Port)
	require.Equal(t, int64(2<<20), got.MaxUploadBytes())
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 0\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "invalid port")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
