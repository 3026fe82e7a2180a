package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".jackbot"

// Paths holds resolved filesystem paths for jackbot data.
type Paths struct {
	Base   string // ~/.jackbot
	Config string // ~/.jackbot/config.yaml
	Data   string // ~/.jackbot/data
}

// ResolvePaths computes all standard paths from the home directory.
// If JACKBOT_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("JACKBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
	}, nil
}

// HistoryDB returns the history database path, honoring the config override.
func (p Paths) HistoryDB(cfg *Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return filepath.Join(p.Data, "jackbot.db")
}

// AssetDir returns the directory temporary assets are written under.
func (c *Config) AssetDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return filepath.Join(os.TempDir(), "jackbot")
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		m, ok := current[key].(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		m, ok := current[key].(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
