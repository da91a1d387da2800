// Package client implements the kiosk side of the worksheet sync
// protocol. Continuous down-payment input (slider, typing) is coalesced
// client-side: a quiet window collapses rapid changes into one outbound
// request carrying only the final value. Term selection is discrete and
// sent immediately. Writes are optimistic with no rollback: a failed
// request leaves the locally displayed value in place, records the error
// and clears the busy indicator, which means the local view can diverge
// from the server until the next successful exchange.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mpalmer79/dealdesk/model"
)

// DefaultQuietWindow is how long the down-payment input must stay quiet
// before the pending value is sent.
const DefaultQuietWindow = 500 * time.Millisecond

// envelope mirrors the service's worksheet response shape.
type envelope struct {
	Success   bool             `json:"success"`
	Worksheet *model.Worksheet `json:"worksheet,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Client is a worksheet sync client for one kiosk session.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	quiet   time.Duration

	mu          sync.Mutex
	worksheetID string
	view        *model.Worksheet
	pending     *float64
	timer       *time.Timer
	busy        bool
	lastErr     error
}

// Option configures a Client.
type Option func(*Client)

// WithQuietWindow overrides the debounce window.
func WithQuietWindow(d time.Duration) Option {
	return func(c *Client) { c.quiet = d }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// New creates a client for the worksheet service at baseURL,
// authenticating with the session token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		quiet:   DefaultQuietWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*model.Worksheet, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		if env.Message != "" {
			return nil, fmt.Errorf("worksheet request failed: %s", env.Message)
		}
		return nil, fmt.Errorf("worksheet request failed: status %d", resp.StatusCode)
	}
	return env.Worksheet, nil
}

// Load fetches the worksheet and makes it the client's local view.
func (c *Client) Load(ctx context.Context, worksheetID string) (*model.Worksheet, error) {
	w, err := c.do(ctx, http.MethodGet, "/api/worksheets/"+worksheetID, nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.worksheetID = worksheetID
	c.view = w
	c.lastErr = nil
	c.mu.Unlock()

	return w.Clone(), nil
}

// SetDownPayment records a continuous-input edit. The local view updates
// immediately; the request goes out only after the input stays quiet for
// the debounce window, and carries whatever the final value was.
func (c *Client) SetDownPayment(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != nil {
		c.view.DownPayment = v
	}
	c.pending = &v
	c.busy = true

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.flushPending)
}

// flushPending sends the coalesced down-payment value, if any.
func (c *Client) flushPending() {
	c.mu.Lock()
	if c.pending == nil {
		c.busy = false
		c.mu.Unlock()
		return
	}
	value := *c.pending
	c.pending = nil
	id := c.worksheetID
	c.mu.Unlock()

	w, err := c.do(context.Background(), http.MethodPatch, "/api/worksheets/"+id, model.CustomerPatch{DownPayment: &value})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// No rollback: the displayed value stays, the failure is
		// recorded, and only the busy indicator clears.
		c.lastErr = err
		c.busy = c.pending != nil
		return
	}

	c.adoptLocked(w)
}

// adoptLocked merges a server snapshot into the local view, preserving a
// newer optimistic down payment typed while the request was in flight.
func (c *Client) adoptLocked(w *model.Worksheet) {
	if c.pending != nil {
		w.DownPayment = *c.pending
		c.busy = true
	} else {
		c.busy = false
	}
	c.view = w
	c.lastErr = nil
}

// SelectTerm sends a term selection immediately; it is a discrete,
// low-frequency action with no coalescing. The optimistic view keeps the
// chosen term even if the request fails.
func (c *Client) SelectTerm(ctx context.Context, months int) error {
	c.mu.Lock()
	if c.view != nil {
		c.view.SelectedTerm = months
	}
	id := c.worksheetID
	c.mu.Unlock()

	w, err := c.do(ctx, http.MethodPatch, "/api/worksheets/"+id, model.CustomerPatch{SelectedTerm: &months})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = err
		return err
	}

	c.adoptLocked(w)
	return nil
}

// MarkReady hands the worksheet to the sales manager.
func (c *Client) MarkReady(ctx context.Context) error {
	c.mu.Lock()
	id := c.worksheetID
	c.mu.Unlock()

	w, err := c.do(ctx, http.MethodPost, "/api/worksheets/"+id+"/ready", nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = err
		return err
	}

	c.adoptLocked(w)
	return nil
}

// Flush sends any pending down payment immediately instead of waiting
// out the quiet window.
func (c *Client) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.flushPending()
}

// PendingDownPayment reports a debounced value that has not been sent
// yet. While it returns true, a manager reading the server sees an older
// down payment than the one the kiosk displays; how that window should
// be resolved is an open product decision.
func (c *Client) PendingDownPayment() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0, false
	}
	return *c.pending, true
}

// Worksheet returns a copy of the optimistic local view.
func (c *Client) Worksheet() *model.Worksheet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return nil
	}
	return c.view.Clone()
}

// Busy reports whether an edit is pending or in flight.
func (c *Client) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Err returns the most recent recorded failure, cleared by the next
// successful exchange.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close stops the debounce timer without sending the pending value.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = nil
	c.busy = false
}
