package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
	"github.com/l3aro/go-cfg-complexity/pkg/report"
)

// Config holds all configuration for ccm
type Config struct {
	// Output format: text, json or prometheus
	Format string `yaml:"format" env:"CCM_FORMAT"`

	// Walk strategy: iterative or recursive
	Strategy string `yaml:"strategy" env:"CCM_STRATEGY"`

	// Functions analysed concurrently; 0 means one per CPU
	Parallelism int `yaml:"parallelism" env:"CCM_PARALLELISM"`

	// Complexity above which a function is highlighted; 0 disables
	Threshold int `yaml:"threshold" env:"CCM_THRESHOLD"`

	// Print the terminal/closing-edge breakdown under each function
	Explain bool `yaml:"explain" env:"CCM_EXPLAIN"`

	// Also compute E - N + 2P
	Classic bool `yaml:"classic" env:"CCM_CLASSIC"`

	// Result cache
	CacheEnabled    bool   `yaml:"cache_enabled" env:"CCM_CACHE_ENABLED"`
	CachePath       string `yaml:"cache_path" env:"CCM_CACHE_PATH"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"CCM_CACHE_MAX_ENTRIES"`

	// SQLite database for --record and the history command
	HistoryPath string `yaml:"history_path" env:"CCM_HISTORY_PATH"`

	// Glob patterns skipped when analysing a directory
	Exclude []string `yaml:"exclude" env:"CCM_EXCLUDE"`

	// Logging
	LogLevel string `yaml:"log_level" env:"CCM_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"CCM_LOG_JSON"`
	Verbose  bool   `yaml:"verbose" env:"CCM_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:          string(report.FormatText),
		Strategy:        string(complexity.StrategyIterative),
		Parallelism:     1,
		Threshold:       0,
		Explain:         false,
		Classic:         false,
		CacheEnabled:    true,
		CachePath:       filepath.Join(ccmDir(), "cache.msgpack"),
		CacheMaxEntries: 1000,
		HistoryPath:     filepath.Join(ccmDir(), "history.db"),
		Exclude:         []string{"**/vendor/**", "**/node_modules/**", "**/testdata/**"},
		LogLevel:        "warn",
		LogJSON:         false,
		Verbose:         false,
	}
}

// ccmDir returns ~/.ccm, or .ccm when the home directory is unknown.
func ccmDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ccm"
	}
	return filepath.Join(home, ".ccm")
}

// globalConfigFilePath returns the global config file path (~/.ccm/config.yaml)
func globalConfigFilePath() string {
	return filepath.Join(ccmDir(), "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.ccm/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".ccm", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.ccm/config.yaml)
// 3. Global config (~/.ccm/config.yaml)
// 4. Defaults
// Command-line flags are applied on top by the caller.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{globalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// A numeric variable that does not parse is an error.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CCM_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("CCM_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("CCM_PARALLELISM"); v != "" {
		i, err := parseInt("CCM_PARALLELISM", v)
		if err != nil {
			return err
		}
		cfg.Parallelism = i
	}
	if v := os.Getenv("CCM_THRESHOLD"); v != "" {
		i, err := parseInt("CCM_THRESHOLD", v)
		if err != nil {
			return err
		}
		cfg.Threshold = i
	}
	if v := os.Getenv("CCM_EXPLAIN"); v != "" {
		cfg.Explain = parseBool(v)
	}
	if v := os.Getenv("CCM_CLASSIC"); v != "" {
		cfg.Classic = parseBool(v)
	}
	if v := os.Getenv("CCM_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("CCM_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("CCM_CACHE_MAX_ENTRIES"); v != "" {
		i, err := parseInt("CCM_CACHE_MAX_ENTRIES", v)
		if err != nil {
			return err
		}
		cfg.CacheMaxEntries = i
	}
	if v := os.Getenv("CCM_HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("CCM_EXCLUDE"); v != "" {
		cfg.Exclude = filepath.SplitList(v)
	}
	if v := os.Getenv("CCM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CCM_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv("CCM_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'prometheus')", c.Format)
	}
	if _, err := complexity.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("invalid strategy: %s (must be 'iterative' or 'recursive')", c.Strategy)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative")
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative")
	}
	if c.CacheEnabled && c.CachePath == "" {
		return fmt.Errorf("cache_path is required when cache_enabled is true")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must be non-negative")
	}
	return nil
}

// AnalysisOptions returns the complexity options the config selects.
// The config must have passed Validate.
func (c *Config) AnalysisOptions() complexity.Options {
	strategy, _ := complexity.ParseStrategy(c.Strategy)
	return complexity.Options{
		Strategy:    strategy,
		Classical:   c.Classic,
		Trace:       c.Explain,
		Parallelism: c.Parallelism,
	}
}

// parseBool accepts the spellings the env vars have always accepted.
func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseInt parses the value of the env var name as an int.
func parseInt(name, s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", name, s)
	}
	return i, nil
}
