package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/synapsetools/synrel/internal/config"
	"github.com/synapsetools/synrel/internal/release"
)

// Client provides access to the Jira REST API.
type Client struct {
	baseURL string
	auth    string
	httpCli *http.Client

	// ownsClient is false when the HTTP client came from WithHTTPClient.
	ownsClient bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The caller keeps
// ownership: it is never modified and Close leaves its connections alone.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpCli = c
		cl.ownsClient = false
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the HTTP
// client so a client passed to WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cp := *cl.httpCli
		cp.Timeout = d
		cl.httpCli = &cp
	}
}

// NewClient creates a new Jira client. Either cfg.Credential ("email:token")
// or both cfg.Email and cfg.APIToken must be set.
func NewClient(cfg config.JiraConfig, opts ...Option) (*Client, error) {
	cred, err := credential(cfg)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultJiraBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		auth:       "Basic " + base64.StdEncoding.EncodeToString([]byte(cred)),
		httpCli:    newHTTPClient(),
		ownsClient: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func credential(cfg config.JiraConfig) (string, error) {
	if cfg.Credential != "" {
		user, token, ok := strings.Cut(cfg.Credential, ":")
		if !ok || user == "" || token == "" {
			return "", errors.WithHint(
				errors.Wrap(ErrMissingCredentials, "JIRA_CREDENTIAL must have the form email:token"),
				credentialsHint,
			)
		}
		return cfg.Credential, nil
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return "", errors.WithHint(ErrMissingCredentials, credentialsHint)
	}
	return cfg.Email + ":" + cfg.APIToken, nil
}

// BaseURL returns the server root used for API and browse links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections held by a client NewClient created. It
// does nothing for a client supplied through WithHTTPClient.
func (c *Client) Close() {
	if c.ownsClient {
		c.httpCli.CloseIdleConnections()
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

// ReleaseJQL builds the query for every issue fixed in version, oldest first.
func ReleaseJQL(project, version string) string {
	return fmt.Sprintf("project = %s AND fixVersion = %s ORDER BY created ASC", quote(project), quote(version))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

// FetchReleaseIssues returns every issue of project whose fixVersion is
// version, grouped by issue type.
func (c *Client) FetchReleaseIssues(ctx context.Context, project, version string) (*release.Notes, error) {
	issues, err := c.SearchAll(ctx, ReleaseJQL(project, version))
	if err != nil {
		return nil, err
	}
	log.Info("fetched release issues", "project", project, "version", version, "count", len(issues))

	return &release.Notes{
		Project: project,
		Version: version,
		BaseURL: c.baseURL,
		Groups:  release.GroupByType(issues),
	}, nil
}

// SearchAll pages through the search endpoint from offset 0, advancing by
// the size of each page, until a page comes back empty.
func (c *Client) SearchAll(ctx context.Context, jql string) ([]release.Issue, error) {
	var all []release.Issue
	startAt := 0
	for {
		page, err := c.searchPage(ctx, jql, startAt)
		if err != nil {
			return nil, err
		}
		log.Debug("jira search page", "startAt", startAt, "count", len(page))
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		startAt += len(page)
	}
}

type searchResponse struct {
	StartAt int           `json:"startAt"`
	Total   int           `json:"total"`
	Issues  []searchIssue `json:"issues"`
}

type searchIssue struct {
	Key    string       `json:"key"`
	Fields searchFields `json:"fields"`
}

type searchFields struct {
	Summary   string `json:"summary"`
	IssueType struct {
		Name string `json:"name"`
	} `json:"issuetype"`
}

func (c *Client) searchPage(ctx context.Context, jql string, startAt int) ([]release.Issue, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("startAt", strconv.Itoa(startAt))

	body, err := c.get(ctx, "/rest/api/2/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, "parsing search response")
	}

	issues := make([]release.Issue, 0, len(result.Issues))
	for _, si := range result.Issues {
		issues = append(issues, release.Issue{
			Key:     si.Key,
			Type:    si.Fields.IssueType.Name,
			Summary: si.Fields.Summary,
		})
	}
	return issues, nil
}

// User is the authenticated account.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// CheckAuth verifies the configured credentials against /rest/api/2/myself.
func (c *Client) CheckAuth(ctx context.Context) (*User, error) {
	body, err := c.get(ctx, "/rest/api/2/myself")
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, errors.Wrap(err, "parsing user response")
	}
	return &u, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
