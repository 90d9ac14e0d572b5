package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/synapsetools/synrel/internal/config"
	"github.com/synapsetools/synrel/internal/jira"
	"github.com/synapsetools/synrel/internal/output"
)

// Release-notes flags
var (
	flagProject string
	flagOut     string
	flagJiraURL string
)

var releaseNotesCmd = &cobra.Command{
	Use:   "release-notes <version> <format>",
	Short: "Print the issues fixed in a Jira release",
	Long: "Print every issue whose fixVersion is <version>, grouped by issue type, " +
		"as a github, rst or md bullet list.",
	Example: `  synrel release-notes py-2.4 rst
  synrel release-notes --project SYNR synapser-0.10 github`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(output.FormatGitHub), string(output.FormatRST), string(output.FormatMarkdown)},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(args[1])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(map[string]string{
			"project": flagProject,
			"jiraURL": flagJiraURL,
		})
		if err != nil {
			return err
		}
		runReleaseNotes(cmd, cfg, args[0], format)
		return nil
	},
}

func runReleaseNotes(cmd *cobra.Command, cfg config.Config, version string, format output.Format) {
	client, err := jira.NewClient(cfg.Jira, jira.WithTimeout(timeout(cfg)))
	if err != nil {
		fail(cmd, err)
		return
	}
	defer client.Close()

	notes, err := client.FetchReleaseIssues(cmd.Context(), cfg.Project, version)
	if err != nil {
		fail(cmd, errors.Wrap(err, "fetching release issues"))
		return
	}

	if err := output.WriteNotes(cmd.OutOrStdout(), notes, string(format), flagOut); err != nil {
		fail(cmd, errors.Wrap(err, "writing output"))
	}
}

func init() {
	releaseNotesCmd.Flags().StringVar(&flagProject, "project", "", "Jira project key (default "+config.DefaultProject+")")
	releaseNotesCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
	releaseNotesCmd.Flags().StringVar(&flagJiraURL, "jira-url", "", "Jira base URL")
}
