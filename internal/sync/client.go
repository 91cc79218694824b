package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lexvault/lexvault/internal/config"
	"github.com/lexvault/lexvault/internal/domain"
)

// PushEventsRequest is the payload for uploading locally recorded
// review events.
type PushEventsRequest struct {
	Events []*domain.ReviewEvent `json:"events"`
}

// PullResponse carries every row the server changed since the cursor
// the client sent. ServerTime is the server clock at query time and
// becomes the client's next pull cursor, so clock skew between client
// and server never creates gaps.
type PullResponse struct {
	Decks      []*domain.Deck        `json:"decks"`
	Notes      []*domain.Note        `json:"notes"`
	Cards      []*domain.Card        `json:"cards"`
	Events     []*domain.ReviewEvent `json:"events"`
	ServerTime time.Time             `json:"server_time"`
}

// Client is the transport the reconciler speaks through. Implemented
// over HTTP in production and faked in tests.
type Client interface {
	// PushEvents uploads a batch of review events. The server treats
	// already-known event IDs as a no-op.
	PushEvents(ctx context.Context, events []*domain.ReviewEvent) error

	// Pull fetches everything changed on the server since the given
	// cursor. A zero cursor requests the full dataset.
	Pull(ctx context.Context, since time.Time) (*PullResponse, error)
}

// HTTPClient talks to the server's sync endpoints with a bearer token.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a sync client from the sync section of the
// configuration. It panics if no server URL is configured, since a
// reconciler without a server is a programming error at wiring time.
func NewHTTPClient(cfg config.SyncConfig) *HTTPClient {
	if cfg.ServerURL == "" {
		panic("sync: server URL is required")
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.ServerURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) PushEvents(ctx context.Context, events []*domain.ReviewEvent) error {
	body, err := json.Marshal(PushEventsRequest{Events: events})
	if err != nil {
		return fmt.Errorf("failed to encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/sync/events",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("push rejected: %s", responseError(resp))
	}
	return nil
}

func (c *HTTPClient) Pull(ctx context.Context, since time.Time) (*PullResponse, error) {
	endpoint := c.baseURL + "/api/sync/changes"
	if !since.IsZero() {
		endpoint += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pull rejected: %s", responseError(resp))
	}

	var pulled PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&pulled); err != nil {
		return nil, fmt.Errorf("failed to decode pull response: %w", err)
	}
	return &pulled, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// responseError summarizes a non-2xx response for error messages
// without leaking unbounded body content into logs.
func responseError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(body) == 0 {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, body)
}
