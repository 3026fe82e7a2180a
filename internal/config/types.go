package config

import "time"

// Config is the root configuration for jackbot.
type Config struct {
	DefaultAccount string             `yaml:"defaultAccount,omitempty"` // used when --account is not given
	Accounts       map[string]Account `yaml:"accounts,omitempty"`
	Artifacts      ArtifactsConfig    `yaml:"artifacts,omitempty"`
	Retry          RetryConfig        `yaml:"retry,omitempty"`
	WorkDir        string             `yaml:"workDir,omitempty"` // temp asset directory; defaults to $TMPDIR/jackbot
	Logging        LoggingConfig      `yaml:"logging,omitempty"`
	History        HistoryConfig      `yaml:"history,omitempty"`
	Hooks          HooksConfig        `yaml:"hooks,omitempty"`
	Announce       AnnounceConfig     `yaml:"announce,omitempty"`
}

// Account holds the Slack credentials and target channel for one API account.
type Account struct {
	SlackToken     string `yaml:"slackToken"`
	SlackChannel   string `yaml:"slackChannel,omitempty"`   // name ("#games") or ID
	SlackChannelID string `yaml:"slackChannelId,omitempty"` // skips channel resolution when set
	SlackAPIURL    string `yaml:"slackApiUrl,omitempty"`    // override for testing against a stub
}

// ArtifactsConfig points at the artifact service endpoints.
type ArtifactsConfig struct {
	FisheryURL    string        `yaml:"fisheryUrl,omitempty"`
	GalleryURL    string        `yaml:"galleryUrl,omitempty"`
	BlobURL       string        `yaml:"blobUrl,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	GenerateDelay time.Duration `yaml:"generateDelay,omitempty"` // pause between failed generate attempts
}

// RetryConfig controls channel resolution and asset generation retries.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"maxAttempts,omitempty"`
	InitialBackoff time.Duration `yaml:"initialBackoff,omitempty"`
	Growth         float64       `yaml:"growth,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// HistoryConfig controls the local publish history database.
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // defaults to true
	Path    string `yaml:"path,omitempty"`
}

// IsEnabled reports whether publish history is recorded.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// HooksConfig defines shell commands run on pipeline events.
type HooksConfig struct {
	GameFetched     []HookEntry `yaml:"gameFetched,omitempty"`
	BatchDispatched []HookEntry `yaml:"batchDispatched,omitempty"`
	BatchFailed     []HookEntry `yaml:"batchFailed,omitempty"`
	BatchAborted    []HookEntry `yaml:"batchAborted,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}

// AnnounceConfig lists secondary destinations told about each published game.
type AnnounceConfig struct {
	IRC *IRCConfig `yaml:"irc,omitempty"`
}

// IRCConfig defines IRC announcer settings.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"`
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"`
}
