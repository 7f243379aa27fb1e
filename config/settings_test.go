package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreConf(t *testing.T) {
	saved := Conf
	t.Cleanup(func() { Conf = saved })
}

func TestLogPathDefault(t *testing.T) {
	restoreConf(t)
	t.Setenv("LOG_PATH", "")

	s := LoadSettings()
	assert.Equal(t, "logs/eteeap-api.log", s.LogPath)
	assert.Equal(t, "logs/eteeap-api.log", LogFilePath())

	Conf.LogPath = ""
	assert.Equal(t, "logs/eteeap-api.log", LogFilePath())
}

func TestLogPathFromEnvironment(t *testing.T) {
	restoreConf(t)
	path := filepath.Join(t.TempDir(), "nested", "api.log")
	t.Setenv("LOG_PATH", path)

	s := LoadSettings()
	assert.Equal(t, path, s.LogPath)
	assert.Equal(t, path, LogFilePath())

	f, err := OpenLogFile(LogFilePath())
	require.NoError(t, err)
	_, err = f.WriteString("started\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "started\n", string(b))
}
