package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/synapsetools/synrel/internal/config"
	"github.com/synapsetools/synrel/internal/jira"
	"github.com/synapsetools/synrel/internal/redact"
	"github.com/synapsetools/synrel/internal/synapse"
)

const version = "0.3.0"

const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Global flags
var (
	flagLogLevel       string
	flagTimeoutSeconds int
)

var rootCmd = &cobra.Command{
	Use:   "synrel",
	Short: "Release-note and annotation helper for Synapse client projects",
	Long: "synrel prints the Jira issues fixed in a release as GitHub, reStructuredText or Markdown lists, " +
		"and sets entity annotations through the Synapse REST API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx)
}

func execute(ctx context.Context) int {
	exitCode = ExitSuccess
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Errors returned from RunE are usage errors; runtime failures go
		// through fail and return nil.
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", redact.Error(err))
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Hint: %s\n", hint)
		}
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print synrel version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "synrel version %s\n", version)
	},
}

// loadConfig merges flag overrides into the effective config and applies the
// log level.
func loadConfig(extra map[string]string) (config.Config, error) {
	overrides := map[string]string{}
	if flagLogLevel != "" {
		overrides["logLevel"] = flagLogLevel
	}
	if flagTimeoutSeconds > 0 {
		overrides["timeoutSeconds"] = fmt.Sprintf("%d", flagTimeoutSeconds)
	}
	for k, v := range extra {
		overrides[k] = v
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return config.Config{}, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, errors.WithHint(
			errors.Wrapf(err, "invalid log level %q", cfg.LogLevel),
			"use one of: debug, info, warn, error, fatal",
		)
	}
	log.SetLevel(level)
	return cfg, nil
}

func timeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// fail reports a runtime error with secrets scrubbed and sets the exit code.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", redact.Error(err))
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s\n", hint)
	}
	if jira.IsAuthError(err) || synapse.IsAuthError(err) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&flagTimeoutSeconds, "timeout", 0, "HTTP request timeout in seconds")

	rootCmd.AddCommand(releaseNotesCmd)
	rootCmd.AddCommand(annotationsCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
