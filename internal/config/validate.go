package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks the settings shared by every command. Accounts are checked
// one at a time with ValidateAccount when a command selects them. Returns nil
// if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	endpoints := map[string]string{
		"artifacts.fisheryUrl": cfg.Artifacts.FisheryURL,
		"artifacts.galleryUrl": cfg.Artifacts.GalleryURL,
		"artifacts.blobUrl":    cfg.Artifacts.BlobURL,
	}
	for _, path := range []string{"artifacts.fisheryUrl", "artifacts.galleryUrl", "artifacts.blobUrl"} {
		raw := endpoints[path]
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    path,
				Message: fmt.Sprintf("must be an absolute URL, got %q", raw),
			})
		}
	}

	if cfg.Retry.MaxAttempts < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.maxAttempts",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Retry.MaxAttempts),
		})
	}
	if cfg.Retry.Growth < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.growth",
			Message: fmt.Sprintf("must be >= 1, got %g", cfg.Retry.Growth),
		})
	}
	if cfg.Retry.InitialBackoff < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.initialBackoff",
			Message: "must not be negative",
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	for event, entries := range map[string][]HookEntry{
		"gameFetched":     cfg.Hooks.GameFetched,
		"batchDispatched": cfg.Hooks.BatchDispatched,
		"batchFailed":     cfg.Hooks.BatchFailed,
		"batchAborted":    cfg.Hooks.BatchAborted,
	} {
		for i, h := range entries {
			if h.Command == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("hooks.%s[%d].command", event, i),
					Message: "command is required",
				})
			}
		}
	}

	if irc := cfg.Announce.IRC; irc != nil {
		if irc.Server == "" {
			issues = append(issues, ValidationIssue{
				Path:    "announce.irc.server",
				Message: "server is required",
			})
		}
		if irc.Nick == "" {
			issues = append(issues, ValidationIssue{
				Path:    "announce.irc.nick",
				Message: "nick is required",
			})
		}
		if irc.Port < 0 || irc.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "announce.irc.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", irc.Port),
			})
		}
		if irc.SASL && irc.Password == "" {
			issues = append(issues, ValidationIssue{
				Path:    "announce.irc.sasl",
				Message: "SASL requires a password to be set",
			})
		}
	}

	return issues
}

// ValidateAccount checks a single account. The token is only required when
// the caller is going to talk to Slack.
func ValidateAccount(name string, acct Account, needToken bool) []ValidationIssue {
	var issues []ValidationIssue
	if needToken && acct.SlackToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "accounts." + name + ".slackToken",
			Message: "token is required",
		})
	}
	if acct.SlackChannel == "" && acct.SlackChannelID == "" {
		issues = append(issues, ValidationIssue{
			Path:    "accounts." + name + ".slackChannel",
			Message: "one of slackChannel or slackChannelId is required",
		})
	}
	return issues
}
