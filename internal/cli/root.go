package cli

import (
	"fmt"

	"github.com/soyeahso/jackbot/internal/channel/slack"
	"github.com/soyeahso/jackbot/internal/config"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	logLevel    string
	accountName string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

// openBackend connects an account to its messaging service.
var openBackend = func(acct config.Account) domain.Backend {
	return slack.New(slack.Options{Token: acct.SlackToken, APIURL: acct.SlackAPIURL}, log)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jackbot",
		Short: "jackbot posts Jackbox game results to Slack",
		Long:  "jackbot fetches a finished Jackbox game's results and publishes them as a threaded Slack conversation.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := config.LoadDotEnv(paths.Base); err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.jackbot/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "API account from the config file (default: defaultAccount)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newPublishCmd())
	cmd.AddCommand(newGamesCmd())
	cmd.AddCommand(newMessagesCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig loads and validates the config file. Without an explicit
// --log-level the logger is rebuilt from the logging section.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}

	if logLevel == "" {
		log = logging.NewStyled(cfg.Logging.ConsoleStyle, cfg.Logging.Level)
	}

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
