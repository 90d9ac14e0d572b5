package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/synapsetools/synrel/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage synrel configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.Save(config.Default()); err != nil {
			fail(cmd, errors.Wrap(err, "writing config"))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value. Keys: project, logLevel, timeoutSeconds, " +
		"jira.baseURL, jira.email, synapse.baseURL. Credentials are read from the " +
		"environment only.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			fail(cmd, err)
			return nil
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			fail(cmd, errors.Wrap(err, "saving config"))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fail(cmd, errors.Wrap(err, "marshaling config"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "Jira credentials: %s\n", presence(cfg.Jira.Credential != "" || cfg.Jira.APIToken != ""))
		fmt.Fprintf(errOut, "Synapse token: %s\n", presence(cfg.Synapse.AuthToken != ""))
		return nil
	},
}

func presence(ok bool) string {
	if ok {
		return "set"
	}
	return "not set"
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}
