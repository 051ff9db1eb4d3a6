// Package config loads the engine's configuration: hardcoded defaults,
// overlaid by a user config file, overlaid by a project config file,
// overlaid by environment variables — in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete vaultsearch configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Profiles   ProfilesConfig   `yaml:"profiles" json:"profiles"`
}

// PathsConfig configures the vault root and exclude patterns.
type PathsConfig struct {
	VaultRoot string   `yaml:"vault_root" json:"vault_root"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures the default hybrid search behavior.
type SearchConfig struct {
	// DefaultProfile names the profile used when a query doesn't pick one.
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
	// RRFConstant is the RRF fusion smoothing parameter (k). Default: 60.
	// It is loaded and validated, but the query pipeline fuses with
	// search.DefaultRRFConstant and does not read this field.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
	// TagBoostMultiplier multiplies a lexical hit's BM25 score when a query
	// token matches one of its tags, which orders the lexical result list.
	// 0 disables substring tag matching and the post-fusion tag
	// amplification. Default: 5.0.
	TagBoostMultiplier float64 `yaml:"tag_boost_multiplier" json:"tag_boost_multiplier"`
	MaxResults         int     `yaml:"max_results" json:"max_results"`
}

// EmbeddingsConfig configures the embedding encoder.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "ollama" or "static"
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"` // 0 = auto-detect
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
}

// StorageConfig configures where the index lives and default reindex
// behavior.
type StorageConfig struct {
	Dir        string `yaml:"dir" json:"dir"`
	ForceByDefault bool `yaml:"force_by_default" json:"force_by_default"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	LogLevel   string `yaml:"log_level" json:"log_level"`
	// Watch enables background incremental reindexing on file changes
	// while serve is running. Disabled by default; reindex is otherwise
	// triggered explicitly (CLI or POST /reindex).
	Watch bool `yaml:"watch" json:"watch"`
}

// ProfilesConfig configures loading custom search profiles in addition to
// the five built-ins.
type ProfilesConfig struct {
	CustomProfilesPath string `yaml:"custom_profiles_path" json:"custom_profiles_path"`
}

// defaultExcludePatterns are always excluded from a vault walk.
var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/.obsidian/**",
	"**/.trash/**",
	"**/node_modules/**",
	"**/venv/**",
	"**/Utilities/**",
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			VaultRoot: "",
			Exclude:   defaultExcludePatterns,
		},
		Search: SearchConfig{
			DefaultProfile:     "default",
			RRFConstant:        60,
			TagBoostMultiplier: 5.0,
			MaxResults:         20,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Dimensions: 0,
			BatchSize:  32,
			OllamaHost: "",
		},
		Storage: StorageConfig{
			Dir:            "",
			ForceByDefault: false,
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8765",
			LogLevel:   "info",
		},
		Profiles: ProfilesConfig{
			CustomProfilesPath: "",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration
// file, following the XDG Base Directory spec.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vaultsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "vaultsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "vaultsearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration from the given vault directory, applying
// layers in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/vaultsearch/config.yaml)
//  3. Project config (.vaultsearch.yaml in the vault root)
//  4. Environment variables (VAULTSEARCH_*)
func Load(vaultRoot string) (*Config, error) {
	cfg := NewConfig()
	cfg.Paths.VaultRoot = vaultRoot

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(vaultRoot); err != nil {
		return nil, err
	}
	cfg.Paths.VaultRoot = vaultRoot // the vault root is a command-line fact, not a config value

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".vaultsearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".vaultsearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Paths.VaultRoot != "" {
		c.Paths.VaultRoot = other.Paths.VaultRoot
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Search.DefaultProfile != "" {
		c.Search.DefaultProfile = other.Search.DefaultProfile
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.TagBoostMultiplier != 0 {
		c.Search.TagBoostMultiplier = other.Search.TagBoostMultiplier
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}

	if other.Storage.Dir != "" {
		c.Storage.Dir = other.Storage.Dir
	}
	if other.Storage.ForceByDefault {
		c.Storage.ForceByDefault = other.Storage.ForceByDefault
	}

	if other.Server.ListenAddr != "" {
		c.Server.ListenAddr = other.Server.ListenAddr
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.Watch {
		c.Server.Watch = other.Server.Watch
	}

	if other.Profiles.CustomProfilesPath != "" {
		c.Profiles.CustomProfilesPath = other.Profiles.CustomProfilesPath
	}
}

// applyEnvOverrides applies VAULTSEARCH_* environment variable overrides,
// the highest-precedence configuration layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VAULTSEARCH_VAULT_ROOT"); v != "" {
		c.Paths.VaultRoot = v
	}
	if v := os.Getenv("VAULTSEARCH_DEFAULT_PROFILE"); v != "" {
		c.Search.DefaultProfile = v
	}
	if v := os.Getenv("VAULTSEARCH_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("VAULTSEARCH_TAG_BOOST_MULTIPLIER"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 {
			c.Search.TagBoostMultiplier = f
		}
	}
	if v := os.Getenv("VAULTSEARCH_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("VAULTSEARCH_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("VAULTSEARCH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("VAULTSEARCH_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("VAULTSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("VAULTSEARCH_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("VAULTSEARCH_WATCH"); v != "" {
		c.Server.Watch = v == "1" || strings.EqualFold(v, "true")
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate rejects structurally invalid configuration.
func (c *Config) Validate() error {
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.TagBoostMultiplier < 0 {
		return fmt.Errorf("search.tag_boost_multiplier must be non-negative, got %f", c.Search.TagBoostMultiplier)
	}

	validProviders := map[string]bool{"ollama": true, "static": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'ollama' or 'static', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimensions < 0 {
		return fmt.Errorf("embeddings.dimensions must be non-negative, got %d", c.Embeddings.Dimensions)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file, if any.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
