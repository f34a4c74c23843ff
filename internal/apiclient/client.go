// Package apiclient is the single network boundary of Webomat: every surface
// talks to the backend through Client.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	gojson "github.com/goccy/go-json"

	"webomat/internal/credentials"
)

const defaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds a single request. Zero uses the default, a negative
	// value disables the bound.
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// Client wraps every backend endpoint family. The credential store is
// injected by the host; the client never inspects its environment.
type Client struct {
	rc *resty.Client

	mu    sync.RWMutex
	store credentials.Store
}

// New constructs a Client. A nil store behaves like credentials.Noop.
func New(opts Options, store credentials.Store) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	switch {
	case opts.Timeout == 0:
		rc.SetTimeout(defaultTimeout)
	case opts.Timeout > 0:
		rc.SetTimeout(opts.Timeout)
	}
	rc.SetBaseURL(base)
	rc.SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	rc.SetJSONMarshaler(gojson.Marshal)
	rc.SetJSONUnmarshaler(gojson.Unmarshal)

	if store == nil {
		store = credentials.Noop{}
	}
	return &Client{rc: rc, store: store}, nil
}

// Store returns the active credential store.
func (c *Client) Store() credentials.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// SetStore replaces the credential store, e.g. when a mobile host swaps in
// its secure storage after startup.
func (c *Client) SetStore(store credentials.Store) {
	if store == nil {
		store = credentials.Noop{}
	}
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

type call struct {
	method string
	path   string
	query  map[string]string
	form   map[string]string
	body   interface{}
	out    interface{}
	// raw receives the undecoded body instead of out.
	raw *[]byte
}

func (c *Client) do(ctx context.Context, cl call) error {
	req := c.rc.R().SetContext(ctx)

	token, err := c.Store().Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}
	switch {
	case cl.form != nil:
		req.SetFormData(cl.form)
	case cl.body != nil:
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	if !resp.IsSuccess() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}

	body := resp.Body()
	if cl.raw != nil {
		*cl.raw = body
		return nil
	}
	if cl.out == nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := gojson.Unmarshal(body, cl.out); err != nil {
		return &DecodeError{StatusCode: resp.StatusCode(), Body: body, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, query: query, out: out})
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, call{method: http.MethodPost, path: path, body: body, out: out})
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, call{method: http.MethodPut, path: path, body: body, out: out})
}

// seg escapes a single path segment.
func seg(s string) string {
	return url.PathEscape(s)
}
