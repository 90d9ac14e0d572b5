// Package redact scrubs credentials from text before it is shown to the user.
//
// Server error bodies and wrapped transport errors can echo request headers
// or tokens back; the CLI passes every error message through [Secrets] before
// printing it. Detection uses regex heuristics covering HTTP Basic and Bearer
// authorization values, JWTs (Synapse personal access tokens), Atlassian API
// tokens, and generic token/secret/password assignments.
package redact
