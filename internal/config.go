package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL     = "http://localhost:5000"
	DefaultRequestTimeout = 2 * time.Minute
)

// Config holds client settings. Precedence: flags > environment > file > defaults.
type Config struct {
	APIBaseURL       string        `yaml:"api_base_url"`
	HistoryPath      string        `yaml:"history_db"`
	VisualizationDir string        `yaml:"visualization_dir"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	History          *bool         `yaml:"history,omitempty"`
}

// HistoryEnabled reports whether transcripts should be archived
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// DefaultConfigPath returns ~/.config/datachat/config.yaml
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "datachat", "config.yaml")
}

// DefaultConfig returns the built-in settings rooted at the user's home directory
func DefaultConfig() *Config {
	base := ".datachat"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".datachat")
	}
	return &Config{
		APIBaseURL:       DefaultAPIBaseURL,
		HistoryPath:      filepath.Join(base, "history.db"),
		VisualizationDir: filepath.Join(base, "visualizations"),
		RequestTimeout:   DefaultRequestTimeout,
	}
}

// LoadConfig reads .env, the YAML file at path (optional when it does not exist
// and path is the default) and the DATACHAT_* environment variables.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("Failed to load .env file: %v", err)
	}

	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return nil, &ConfigError{Path: path, Err: errors.New("api_base_url must not be empty")}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			LogDebug("No config file at %s", path)
			return nil
		}
		return &ConfigError{Path: path, Err: err}
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return &ConfigError{Path: path, Err: fmt.Errorf("failed to parse config: %w", err)}
	}

	if fileCfg.APIBaseURL != "" {
		c.APIBaseURL = fileCfg.APIBaseURL
	}
	if fileCfg.HistoryPath != "" {
		c.HistoryPath = expandHome(fileCfg.HistoryPath)
	}
	if fileCfg.VisualizationDir != "" {
		c.VisualizationDir = expandHome(fileCfg.VisualizationDir)
	}
	if fileCfg.RequestTimeout > 0 {
		c.RequestTimeout = fileCfg.RequestTimeout
	}
	if fileCfg.History != nil {
		c.History = fileCfg.History
	}

	LogDebug("Loaded config from %s", path)
	return nil
}

func (c *Config) mergeEnv() error {
	if v := strings.TrimSpace(os.Getenv("DATACHAT_API_BASE_URL")); v != "" {
		c.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATACHAT_HISTORY_DB")); v != "" {
		c.HistoryPath = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("DATACHAT_VIZ_DIR")); v != "" {
		c.VisualizationDir = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("DATACHAT_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Path: "DATACHAT_REQUEST_TIMEOUT", Err: err}
		}
		c.RequestTimeout = d
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
