// Package cli wires together the Cobra command tree for the synrel binary.
//
// It defines the root command and all subcommands (release-notes,
// annotations, auth, config, version), binds flags, reads configuration,
// constructs the Jira and Synapse clients for the duration of a single
// command, and returns deterministic exit codes.
package cli
