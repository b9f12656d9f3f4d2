package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console", "")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("WARN", "", "stderr")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNewErrors(t *testing.T) {
	_, err := New("loud", "json", "")
	require.Error(t, err)
	_, err = New("info", "xml", "")
	require.ErrorContains(t, err, "xml")
	require.NotNil(t, Must("loud", "json", ""))
}

func TestOutput(t *testing.T) {
	require.Equal(t, "stdout", outputPath(""))
	require.Equal(t, "stderr", outputPath(" stderr "))

	path := filepath.Join(t.TempDir(), "server.log")
	l, err := New("info", "json", path)
	require.NoError(t, err)
	l.Info("listening")
	_ = l.Sync()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"listening"`)
}
