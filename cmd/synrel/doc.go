// Synrel prints the Jira issues fixed in a release as GitHub, reStructuredText
// or Markdown lists, and replaces Synapse entity annotations.
//
// Usage:
//
//	synrel release-notes py-4.4.0 rst                  # SYNPY issues in fixVersion py-4.4.0
//	synrel release-notes --project SYNR 0.10 github    # another project
//	synrel annotations set syn123 --set species=human  # replace annotations
//	synrel annotations get syn123                      # print annotations as JSON
//	synrel auth check                                  # validate credentials
//
// Jira credentials come from JIRA_EMAIL and JIRA_API_TOKEN (or
// JIRA_CREDENTIAL=email:token); the Synapse token from SYNAPSE_AUTH_TOKEN.
// Both may also be placed in a .env file in the working directory.
package main
