package jira

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrMissingCredentials is returned by NewClient when no usable credential is configured.
var ErrMissingCredentials = errors.New("jira credentials are not configured")

const credentialsHint = `create an API token at https://id.atlassian.com/manage-profile/security/api-tokens
and export JIRA_EMAIL and JIRA_API_TOKEN (or JIRA_CREDENTIAL=email:token)`

// APIError is a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401/403 from Jira or a missing credential.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingCredentials) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
