// Package jira is a minimal client for the Jira REST API v2.
//
// It pages through the issue search endpoint for every issue fixed in a
// release and returns them grouped by issue type. Requests authenticate with
// HTTP Basic credentials built from an Atlassian account email and API token;
// [NewClient] refuses to build a client without them, so no request is ever
// sent anonymously.
//
// Clients are owned by the caller: construct one per command run and
// [Client.Close] it when done.
package jira
