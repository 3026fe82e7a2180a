package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	var paths []string
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidateAccount(t *testing.T) {
	cfg := Defaults()
	cfg.Accounts = map[string]Account{
		"dev":  {SlackToken: "xoxb", SlackChannelID: "C0123456789"},
		"bad":  {},
		"prod": {SlackToken: "xoxb", SlackChannel: "#games"},
	}

	assert.Empty(t, Validate(&cfg), "accounts are checked when selected")

	assert.Empty(t, ValidateAccount("dev", cfg.Accounts["dev"], true))
	assert.ElementsMatch(t, []string{"accounts.bad.slackToken", "accounts.bad.slackChannel"},
		issuePaths(ValidateAccount("bad", cfg.Accounts["bad"], true)))
	assert.Equal(t, []string{"accounts.bad.slackChannel"},
		issuePaths(ValidateAccount("bad", cfg.Accounts["bad"], false)))
}

func TestSelectAccount(t *testing.T) {
	cfg := Defaults()
	cfg.Accounts = map[string]Account{
		"dev":  {SlackChannel: "#games"},
		"prod": {SlackToken: "xoxb", SlackChannel: "#games"},
	}

	acct, err := cfg.SelectAccount("dev", false)
	require.NoError(t, err)
	assert.Equal(t, "#games", acct.SlackChannel)

	_, err = cfg.SelectAccount("dev", true)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "accounts.dev.slackToken")

	_, err = cfg.SelectAccount("prod", true)
	require.NoError(t, err)

	_, err = cfg.SelectAccount("stage", false)
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "API account not defined: stage")
}

func TestValidateArtifacts(t *testing.T) {
	cfg := Defaults()
	cfg.Artifacts.BlobURL = "not a url"

	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "artifacts.blobUrl", issues[0].Path)
}

func TestValidateRetry(t *testing.T) {
	cfg := Defaults()
	cfg.Retry.MaxAttempts = 0
	cfg.Retry.Growth = 0.5

	assert.ElementsMatch(t, []string{"retry.maxAttempts", "retry.growth"}, issuePaths(Validate(&cfg)))
}

func TestValidateLogging(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	cfg.Logging.ConsoleStyle = "fancy"

	assert.ElementsMatch(t, []string{"logging.level", "logging.consoleStyle"}, issuePaths(Validate(&cfg)))
}

func TestValidateHooks(t *testing.T) {
	cfg := Defaults()
	cfg.Hooks.BatchFailed = []HookEntry{{Command: "notify-send failed"}, {}}

	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "hooks.batchFailed[1].command", issues[0].Path)
}

func TestValidateIRC(t *testing.T) {
	cfg := Defaults()
	cfg.Announce.IRC = &IRCConfig{Port: 70000, SASL: true}

	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "announce.irc.server")
	assert.Contains(t, paths, "announce.irc.nick")
	assert.Contains(t, paths, "announce.irc.port")
	assert.Contains(t, paths, "announce.irc.sasl")
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "retry.growth", Message: "must be >= 1"}
	assert.Equal(t, "retry.growth: must be >= 1", issue.String())
}
