package synapse

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrMissingToken is returned by NewClient when no auth token is configured.
var ErrMissingToken = errors.New("synapse auth token is not configured")

const tokenHint = `create a personal access token under Account Settings on synapse.org
and export SYNAPSE_AUTH_TOKEN`

// APIError is a non-2xx response from Synapse.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synapse API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401/403 from Synapse or a missing token.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingToken) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsConflict reports whether err is a 412 etag mismatch.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 412
}
