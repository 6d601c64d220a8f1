package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempUserConfigDir(t *testing.T) (configPath string) {
	t.Helper()
	tmpDir := t.TempDir()
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Cleanup(func() { os.Setenv("XDG_CONFIG_HOME", origXDG) })
	return filepath.Join(tmpDir, "cjdocs", "config.yaml")
}

func TestBackupUserConfig_NoConfigReturnsEmpty(t *testing.T) {
	withTempUserConfigDir(t)
	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupUserConfig_BacksUpExistingConfig(t *testing.T) {
	configPath := withTempUserConfigDir(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	content := "version: 1\nembeddings:\n  provider: ollama\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestBackupUserConfig_PrunesBeyondMaxBackups(t *testing.T) {
	configPath := withTempUserConfigDir(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0644))

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreUserConfig_RoundTrips(t *testing.T) {
	configPath := withTempUserConfigDir(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	original := "version: 1\nembeddings:\n  provider: static\n"
	require.NoError(t, os.WriteFile(configPath, []byte(original), 0644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	require.NoError(t, os.WriteFile(configPath, []byte("version: 2\n"), 0644))
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}
