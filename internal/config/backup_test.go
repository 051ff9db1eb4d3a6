package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig_NoConfigReturnsEmptyPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupUserConfig_CreatesTimestampedCopy(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "vaultsearch")
	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := "version: 1\nembeddings:\n  provider: ollama\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.FileExists(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestListUserConfigBackups_NoDirReturnsNilNotError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "missing"))
	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Nil(t, backups)
}

func TestListUserConfigBackups_OnlyMatchesBackupSuffix(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, "vaultsearch")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("version: 1\n"), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml.bak.20260101-000000"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "unrelated.txt"), []byte("x"), 0644))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Contains(t, backups[0], BackupSuffix)
}

func TestBackupUserConfig_CleansUpBeyondMaxBackups(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, "vaultsearch")
	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0644))

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreUserConfig_WritesBackupContentToConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configDir := filepath.Join(tmpDir, "vaultsearch")
	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	backupPath := filepath.Join(configDir, "config.yaml.bak.20260101-000000")
	restoredContent := "version: 1\nsearch:\n  default_profile: deep\n"
	require.NoError(t, os.WriteFile(backupPath, []byte(restoredContent), 0644))

	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, restoredContent, string(data))
}

func TestRestoreUserConfig_MissingBackupReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	err := RestoreUserConfig(filepath.Join(t.TempDir(), "nonexistent.bak"))
	assert.Error(t, err)
}
