package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapsetools/synrel/internal/config"
	"github.com/synapsetools/synrel/internal/release"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(config.JiraConfig{
		BaseURL:  server.URL,
		Email:    "first.last@example.org",
		APIToken: "test-token",
	}, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func issue(key, typ, summary string) searchIssue {
	si := searchIssue{Key: key}
	si.Fields.Summary = summary
	si.Fields.IssueType.Name = typ
	return si
}

// pagedServer serves pages in order, keyed by the startAt each page should be
// requested with. Any other offset gets an empty page.
func pagedServer(t *testing.T, pages [][]searchIssue, requests *int32) *httptest.Server {
	t.Helper()
	byOffset := map[int][]searchIssue{}
	offset := 0
	for _, p := range pages {
		byOffset[offset] = p
		offset += len(p)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		startAt, err := strconv.Atoi(r.URL.Query().Get("startAt"))
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{StartAt: startAt, Issues: byOffset[startAt]})
	}))
}

func TestNewClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.JiraConfig
	}{
		{"nothing", config.JiraConfig{}},
		{"email only", config.JiraConfig{Email: "a@b.c"}},
		{"token only", config.JiraConfig{APIToken: "tok"}},
		{"credential without colon", config.JiraConfig{Credential: "justatoken"}},
		{"credential empty token", config.JiraConfig{Credential: "a@b.c:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, ErrMissingCredentials))
			assert.True(t, IsAuthError(err))
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(config.JiraConfig{Credential: "a@b.c:tok"})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, config.DefaultJiraBaseURL, c.BaseURL())
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("a@b.c:tok")), c.auth)
}

func TestReleaseJQL(t *testing.T) {
	assert.Equal(t,
		`project = "SYNPY" AND fixVersion = "py-2.4" ORDER BY created ASC`,
		ReleaseJQL("SYNPY", "py-2.4"))
	assert.Equal(t,
		`project = "A" AND fixVersion = "v\"1\"" ORDER BY created ASC`,
		ReleaseJQL("A", `v"1"`))
}

func TestFetchReleaseIssues_Paginates(t *testing.T) {
	var requests int32
	server := pagedServer(t, [][]searchIssue{
		{issue("SYNPY-1", "Task", "one"), issue("SYNPY-2", "Bug", "two")},
		{issue("SYNPY-3", "Task", "three")},
	}, &requests)
	defer server.Close()

	notes, err := testClient(t, server).FetchReleaseIssues(context.Background(), "SYNPY", "py-4.0")
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&requests), "two full pages and a terminating empty page")
	assert.Equal(t, "SYNPY", notes.Project)
	assert.Equal(t, "py-4.0", notes.Version)
	assert.Equal(t, server.URL, notes.BaseURL)
	assert.Equal(t, []release.Group{
		{Type: "Bug", Issues: []release.Issue{{Key: "SYNPY-2", Type: "Bug", Summary: "two"}}},
		{Type: "Task", Issues: []release.Issue{
			{Key: "SYNPY-1", Type: "Task", Summary: "one"},
			{Key: "SYNPY-3", Type: "Task", Summary: "three"},
		}},
	}, notes.Groups)
}

func TestFetchReleaseIssues_QueryAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("first.last@example.org:test-token"))
		assert.Equal(t, want, r.Header.Get("Authorization"))
		assert.Equal(t, `project = "SYNR" AND fixVersion = "synapser-0.10" ORDER BY created ASC`, r.URL.Query().Get("jql"))
		assert.Equal(t, "0", r.URL.Query().Get("startAt"))
		_, _ = w.Write([]byte(`{"issues": []}`))
	}))
	defer server.Close()

	notes, err := testClient(t, server).FetchReleaseIssues(context.Background(), "SYNR", "synapser-0.10")
	require.NoError(t, err)
	assert.Empty(t, notes.Groups)
	assert.Zero(t, notes.Count())
}

func TestFetchReleaseIssues_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`{"errorMessages":["The value 'NOPE' does not exist for the field 'project'."]}`))
	}))
	defer server.Close()

	_, err := testClient(t, server).FetchReleaseIssues(context.Background(), "NOPE", "1.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "does not exist for the field 'project'")
	assert.False(t, IsAuthError(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestFetchReleaseIssues_ErrorOnLaterPage(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_ = json.NewEncoder(w).Encode(searchResponse{Issues: []searchIssue{issue("A-1", "Bug", "x")}})
			return
		}
		w.WriteHeader(500)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	notes, err := testClient(t, server).FetchReleaseIssues(context.Background(), "A", "1")
	require.Error(t, err)
	assert.Nil(t, notes)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestFetchReleaseIssues_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		_, _ = w.Write([]byte("Client must be authenticated to access this resource."))
	}))
	defer server.Close()

	_, err := testClient(t, server).FetchReleaseIssues(context.Background(), "A", "1")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestFetchReleaseIssues_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	_, err := testClient(t, server).FetchReleaseIssues(context.Background(), "A", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing search response")
}

func TestCheckAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		_, _ = w.Write([]byte(`{"accountId":"abc","displayName":"First Last","emailAddress":"first.last@example.org"}`))
	}))
	defer server.Close()

	u, err := testClient(t, server).CheckAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "First Last", u.DisplayName)
	assert.Equal(t, "abc", u.AccountID)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(&APIError{StatusCode: 403}))
	assert.False(t, IsAuthError(&APIError{StatusCode: 500}))
	assert.False(t, IsAuthError(errors.New("other")))
	assert.True(t, IsAuthError(errors.Wrap(&APIError{StatusCode: 401}, "wrapped")))
}

// closeTracker records CloseIdleConnections calls made through an http.Client.
type closeTracker struct {
	http.RoundTripper
	closed int32
}

func (c *closeTracker) CloseIdleConnections() { atomic.AddInt32(&c.closed, 1) }

func TestWithHTTPClient_CallerKeepsOwnership(t *testing.T) {
	var requests int32
	server := pagedServer(t, nil, &requests)
	defer server.Close()

	tracker := &closeTracker{RoundTripper: server.Client().Transport}
	shared := &http.Client{Timeout: time.Minute, Transport: tracker}

	c, err := NewClient(config.JiraConfig{BaseURL: server.URL, Credential: "a@b.c:tok"},
		WithHTTPClient(shared), WithTimeout(5*time.Second))
	require.NoError(t, err)

	_, err = c.FetchReleaseIssues(context.Background(), "A", "1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	c.Close()
	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 5*time.Second, c.httpCli.Timeout)
	assert.Zero(t, atomic.LoadInt32(&tracker.closed))
}

func TestWithTimeout_OwnedClient(t *testing.T) {
	c, err := NewClient(config.JiraConfig{Credential: "a@b.c:tok"}, WithTimeout(3*time.Second))
	require.NoError(t, err)
	defer c.Close()
	assert.True(t, c.ownsClient)
	assert.Equal(t, 3*time.Second, c.httpCli.Timeout)
	assert.NotSame(t, http.DefaultTransport, c.httpCli.Transport)
}
