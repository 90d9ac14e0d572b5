package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/synapsetools/synrel/internal/config"
)

// TraceHeader carries the caller's TraceToken.
const TraceHeader = "traceparent"

// TraceToken is an opaque correlation value supplied by the caller. It is
// never parsed or altered.
type TraceToken string

// Client provides access to the Synapse repository REST API.
type Client struct {
	baseURL string
	token   string
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

// NewClient creates a new Synapse client authenticated with cfg.AuthToken.
func NewClient(cfg config.SynapseConfig, opts ...Option) (*Client, error) {
	if cfg.AuthToken == "" {
		return nil, errors.WithHint(ErrMissingToken, tokenHint)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultSynapseBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		token:      cfg.AuthToken,
		httpCli:    newHTTPClient(),
		ownsClient: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
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

func annotationsPath(entityID string) string {
	return "/entity/" + url.PathEscape(entityID) + "/annotations2"
}

// SetAnnotations replaces the annotations of rec.ID in a single PUT and
// returns the resource as stored by the server. rec.Etag must be the
// entity's current etag. Errors are returned as-is; nothing is retried.
func (c *Client) SetAnnotations(ctx context.Context, rec Record, trace TraceToken) (*Annotations, error) {
	wire, err := ToWire(rec.Annotations)
	if err != nil {
		return nil, errors.Wrap(err, "converting annotations")
	}

	payload, err := json.Marshal(Annotations{
		ID:          rec.ID,
		Etag:        rec.Etag,
		Annotations: wire,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling annotations")
	}

	log.Debug("setting annotations", "entity", rec.ID, "count", len(wire))
	var out Annotations
	if err := c.do(ctx, http.MethodPut, annotationsPath(rec.ID), payload, trace, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAnnotations fetches the current annotations and etag of an entity.
func (c *Client) GetAnnotations(ctx context.Context, entityID string, trace TraceToken) (*Annotations, error) {
	var out Annotations
	if err := c.do(ctx, http.MethodGet, annotationsPath(entityID), nil, trace, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, trace TraceToken, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if trace != "" {
		req.Header.Set(TraceHeader, string(trace))
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "parsing response")
	}
	return nil
}
