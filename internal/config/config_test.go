package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_HasSensibleDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "default", cfg.Search.DefaultProfile)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir()) // isolate from any real user config
	vaultDir := t.TempDir()
	yamlContent := "search:\n  default_profile: deep\n  rrf_constant: 80\nembeddings:\n  provider: static\n"
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, ".vaultsearch.yaml"), []byte(yamlContent), 0644))

	cfg, err := Load(vaultDir)
	require.NoError(t, err)
	assert.Equal(t, "deep", cfg.Search.DefaultProfile)
	assert.Equal(t, 80, cfg.Search.RRFConstant)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, vaultDir, cfg.Paths.VaultRoot)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	vaultDir := t.TempDir()
	yamlContent := "search:\n  default_profile: deep\n"
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, ".vaultsearch.yaml"), []byte(yamlContent), 0644))
	t.Setenv("VAULTSEARCH_DEFAULT_PROFILE", "keywords")

	cfg, err := Load(vaultDir)
	require.NoError(t, err)
	assert.Equal(t, "keywords", cfg.Search.DefaultProfile)
}

func TestLoad_NoProjectFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	vaultDir := t.TempDir()

	cfg, err := Load(vaultDir)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Search.DefaultProfile)
	assert.Equal(t, vaultDir, cfg.Paths.VaultRoot)
}

func TestLoad_YMLExtensionFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, ".vaultsearch.yml"), []byte("search:\n  rrf_constant: 99\n"), 0644))

	cfg, err := Load(vaultDir)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Search.RRFConstant)
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, ".vaultsearch.yaml"), []byte("search: [unterminated"), 0644))

	_, err := Load(vaultDir)
	assert.Error(t, err)
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	vaultDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vaultDir, ".vaultsearch.yaml"), []byte("embeddings:\n  provider: unknown-provider\n"), 0644))

	_, err := Load(vaultDir)
	assert.Error(t, err)
}

func TestValidate_RejectsNegativeMaxResults(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.MaxResults = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroRRFConstant(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.RRFConstant = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestWriteYAML_RoundTripsThroughLoadYAML(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.DefaultProfile = "recent"
	cfg.Embeddings.Dimensions = 768

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, "recent", loaded.Search.DefaultProfile)
	assert.Equal(t, 768, loaded.Embeddings.Dimensions)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	assert.Equal(t, filepath.Join(xdg, "vaultsearch", "config.yaml"), GetUserConfigPath())
}
