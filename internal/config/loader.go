package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	for name, acct := range cfg.Accounts {
		acct.SlackToken = expandEnvVars(acct.SlackToken)
		acct.SlackChannel = expandEnvVars(acct.SlackChannel)
		acct.SlackChannelID = expandEnvVars(acct.SlackChannelID)
		cfg.Accounts[name] = acct
	}
	if cfg.Announce.IRC != nil {
		cfg.Announce.IRC.Password = expandEnvVars(cfg.Announce.IRC.Password)
	}
}

// envOverrides are the JACKBOT_* variables that win over the config file.
type envOverrides struct {
	LogLevel    string `env:"LOG_LEVEL"`
	WorkDir     string `env:"WORK_DIR"`
	FisheryURL  string `env:"FISHERY_URL"`
	MaxAttempts int    `env:"MAX_ATTEMPTS"`
	Account     string `env:"ACCOUNT"`
}

// Load reads the config file, applies environment overrides, and returns
// the merged Config. A missing file is a ConfigError wrapping fs.ErrNotExist.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, &ConfigError{Message: "config file not found " + path, Err: err}
		}
		return cfg, &ConfigError{Message: "reading " + path, Err: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config", Err: err}
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadOrDefaults is Load for commands that can run without a config file.
func LoadOrDefaults(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		cfg = Defaults()
		return cfg, applyEnvOverrides(&cfg)
	}
	return cfg, err
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config", Err: err}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.DefaultAccount == "" {
		cfg.DefaultAccount = def.DefaultAccount
	}
	if cfg.Artifacts.FisheryURL == "" {
		cfg.Artifacts.FisheryURL = def.Artifacts.FisheryURL
	}
	if cfg.Artifacts.GalleryURL == "" {
		cfg.Artifacts.GalleryURL = def.Artifacts.GalleryURL
	}
	if cfg.Artifacts.BlobURL == "" {
		cfg.Artifacts.BlobURL = def.Artifacts.BlobURL
	}
	if cfg.Artifacts.Timeout == 0 {
		cfg.Artifacts.Timeout = def.Artifacts.Timeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoff == 0 {
		cfg.Retry.InitialBackoff = def.Retry.InitialBackoff
	}
	if cfg.Retry.Growth == 0 {
		cfg.Retry.Growth = def.Retry.Growth
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = def.Logging.ConsoleStyle
	}
	for _, base := range []*string{&cfg.Artifacts.FisheryURL, &cfg.Artifacts.GalleryURL, &cfg.Artifacts.BlobURL} {
		*base = strings.TrimRight(*base, "/")
	}
}

// applyEnvOverrides reads JACKBOT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: "JACKBOT_"}); err != nil {
		return &ConfigError{Message: "invalid environment override", Err: err}
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.LogLevel)
	}
	if o.WorkDir != "" {
		cfg.WorkDir = o.WorkDir
	}
	if o.FisheryURL != "" {
		cfg.Artifacts.FisheryURL = strings.TrimRight(o.FisheryURL, "/")
	}
	if o.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = o.MaxAttempts
	}
	if o.Account != "" {
		cfg.DefaultAccount = o.Account
	}
	return nil
}

// LoadDotEnv exports the variables of {dir}/.env that are not already set,
// so ${VAR} references in the config file can live next to it. A missing
// file is not an error.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &ConfigError{Message: "failed to read .env", Err: err}
	}
	return nil
}
