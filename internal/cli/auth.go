package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapsetools/synrel/internal/jira"
	"github.com/synapsetools/synrel/internal/synapse"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Credential checks",
}

var authCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate Jira credentials and report Synapse token presence",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(map[string]string{"jiraURL": flagJiraURL})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Checking Jira at %s...\n", cfg.Jira.BaseURL)
		client, err := jira.NewClient(cfg.Jira, jira.WithTimeout(timeout(cfg)))
		if err != nil {
			fail(cmd, err)
			return nil
		}
		defer client.Close()

		user, err := client.CheckAuth(cmd.Context())
		if err != nil {
			fail(cmd, err)
			return nil
		}
		fmt.Fprintf(out, "OK: authenticated to Jira as %s\n", user.DisplayName)

		syn, err := synapse.NewClient(cfg.Synapse)
		if err != nil {
			fmt.Fprintf(out, "Synapse: no auth token configured\n")
			return nil
		}
		syn.Close()
		fmt.Fprintf(out, "Synapse: auth token configured for %s\n", cfg.Synapse.BaseURL)
		return nil
	},
}

func init() {
	authCmd.AddCommand(authCheckCmd)
	authCheckCmd.Flags().StringVar(&flagJiraURL, "jira-url", "", "Jira base URL")
}
