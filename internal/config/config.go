package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	DefaultFisheryURL = "https://fishery.jackboxgames.com/artifact"
	DefaultGalleryURL = "http://games.jackbox.tv/artifact"
	DefaultBlobURL    = "https://s3.amazonaws.com/jbg-blobcast-artifacts"
	DefaultAccount    = "dev"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		DefaultAccount: DefaultAccount,
		Artifacts: ArtifactsConfig{
			FisheryURL: DefaultFisheryURL,
			GalleryURL: DefaultGalleryURL,
			BlobURL:    DefaultBlobURL,
			Timeout:    30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: time.Second,
			Growth:         2,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// Account returns the named account. An empty name selects DefaultAccount.
func (c *Config) Account(name string) (Account, error) {
	if name == "" {
		name = c.DefaultAccount
	}
	acct, ok := c.Accounts[name]
	if !ok {
		return Account{}, &ConfigError{Message: "API account not defined: " + name}
	}
	return acct, nil
}

// SelectAccount looks an account up and checks that it can be used.
// needToken is false for commands that never contact Slack.
func (c *Config) SelectAccount(name string, needToken bool) (Account, error) {
	if name == "" {
		name = c.DefaultAccount
	}
	acct, err := c.Account(name)
	if err != nil {
		return acct, err
	}
	if issues := ValidateAccount(name, acct, needToken); len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, issue := range issues {
			msgs[i] = issue.String()
		}
		return acct, &ConfigError{Message: "account " + name + " is incomplete: " + strings.Join(msgs, "; ")}
	}
	return acct, nil
}

// AccountNames returns the configured account keys in sorted order.
func (c *Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
