package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var configSearchPaths = []string{".config.yaml", "config.yaml", "configs/config.yaml"}

// Loader reads configuration from a yaml file layered over the defaults.
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader using the default file search paths.
func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the loader to an explicit config file.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration: defaults, then the first config
// file found, then environment overrides.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// Missing .env is fine, the process environment still applies.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := ""

	candidates := configSearchPaths
	if l.path != "" {
		candidates = []string{l.path}
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", candidate, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", candidate, err)
		}
		path = candidate
		break
	}
	if l.path != "" && path == "" {
		return nil, fmt.Errorf("config file not found: %s", l.path)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOXMONITOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SOXMONITOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SOXMONITOR_STORE"); v != "" {
		cfg.Auth.Store.Type = v
	}
	if v := os.Getenv("SOXMONITOR_REDIS_ADDR"); v != "" {
		cfg.Auth.Store.Redis.Addr = v
	}
}

// Validate rejects configurations the service cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if len(cfg.Auth.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	seen := make(map[string]struct{}, len(cfg.Auth.Accounts))
	for _, account := range cfg.Auth.Accounts {
		if account.Username == "" || account.Password == "" {
			return fmt.Errorf("account username and password are required")
		}
		if _, dup := seen[account.Username]; dup {
			return fmt.Errorf("duplicate account username: %s", account.Username)
		}
		seen[account.Username] = struct{}{}
	}
	if cfg.Auth.SessionTTL < 0 {
		return fmt.Errorf("session ttl must not be negative")
	}
	return nil
}
