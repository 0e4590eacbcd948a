package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mudra "+Version+"\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.Error(t, err, "init must not overwrite")

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "debounce_ms: 1000")
	assert.Contains(t, out, "speech_cooldown_ms: 2000")
}

func TestConfigShow_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recognition:\n  debounce_ms: 750\n"), 0644))

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "debounce_ms: 750")
}

func TestSessionsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := config.Default()
	cfg.DataDir = dir
	data, err := config.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	st, err := openStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Sessions().Start("session-1", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))
	require.NoError(t, st.Close())

	out, err := execute(t, "sessions", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "session-1")
	assert.Contains(t, out, "running")
}

func TestDisplayURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"0.0.0.0:9000", "http://localhost:9000/"},
		{"127.0.0.1:8081", "http://127.0.0.1:8081/"},
		{"bogus", "http://localhost:8080/"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, displayURL(tt.addr))
		})
	}
}

func TestFindWebDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Empty(t, findWebDir(""))

	data := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(data, "web"), 0755))
	assert.Equal(t, filepath.Join(data, "web"), findWebDir(data))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "web"), 0755))
	got := findWebDir(data)
	assert.Equal(t, "web", filepath.Base(got))
	assert.NotEqual(t, filepath.Join(data, "web"), got)
}

func TestAppConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Recognition.MaxLag = 7
	cfg.Detector.MinTrackingConfidence = 0.4

	got := appConfig(cfg)
	assert.Equal(t, 7, got.MaxLag)
	assert.Equal(t, 0.4, got.Detector.MinTrackingConf)
	assert.Equal(t, cfg.Recognition.PoseRate, got.PoseRate)
}
