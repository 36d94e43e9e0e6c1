// Package cli provides the askdb command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"askdb/internal/config"
	"askdb/internal/controller"
	"askdb/internal/tui"
)

// Version is set at build time
var Version = "dev"

// configKey is used to store config in context.
type configKey struct{}

// reportedError marks an error the user has already seen
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "askdb",
		Short: "Ask a database questions in plain language",
		Long: `askdb sends natural-language questions to a text-to-SQL backend and shows
the generated SQL, the result rows and an explanation.

Run without arguments for the interactive terminal UI.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}
			config.LoadEnvFiles("")
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
			return nil
		},
		RunE: runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./askdb.yaml or $XDG_CONFIG_HOME/askdb/config.yaml)")
	pf.String("endpoint", config.DefaultEndpoint, "Backend base URL")
	pf.String("storage", config.DefaultStorage, "Where settings and history live: file or redis")
	pf.String("storage-path", "", "Storage file for --storage=file")
	pf.String("redis-addr", "", "Redis address for --storage=redis")
	pf.Int("redis-db", 0, "Redis database for --storage=redis")
	pf.Int("history-limit", config.DefaultHistoryLimit, "Questions kept in history")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error, disabled")
	pf.String("log-file", "", "Log file (the TUI always logs to a file)")

	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newConnectionCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and prints errors the commands did not
// already show.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return err
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	logPath, err := cfg.LogFilePath()
	if err != nil {
		return err
	}
	e, err := openEnv(cmd.Context(), cfg, logPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()

	app := tui.New(func(view controller.View) *controller.Controller {
		return e.controller(view)
	}, e.client, e.book, e.log)

	e.log.Info().Str("endpoint", cfg.Endpoint).Str("storage", cfg.Storage).Msg("starting tui")
	return app.Run(cmd.Context())
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the askdb version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}
