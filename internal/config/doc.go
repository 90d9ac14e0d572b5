// Package config loads and merges synrel configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (SYNREL_PROJECT, JIRA_EMAIL, JIRA_API_TOKEN,
//     SYNAPSE_AUTH_TOKEN, etc.), including any loaded from a local .env file
//  3. Config file ($XDG_CONFIG_HOME/synrel/config.json)
//  4. Built-in defaults
//
// Credentials are only ever read from the environment; [Save] never writes
// them to disk.
//
// Use [Load] to obtain a merged [Config] and [SetField] to update a single
// non-secret key before calling [Save].
package config
