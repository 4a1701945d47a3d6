// Package remote implements the remote settings API: an HTTP client that
// satisfies ports.Adapter and a handler that serves any adapter over HTTP.
//
// Wire format:
//
//	GET /v1/settings/{key}  200 {"key":"...","value":"..."} | 404
//	PUT /v1/settings/{key}  body {"value":"..."} -> 204
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
	derrors "github.com/alexisbeaulieu97/designctl/pkg/errors"
)

const (
	settingsPath   = "/v1/settings/"
	defaultTimeout = 10 * time.Second
	backendName    = "remote"
)

// Item is the JSON body of a settings GET response.
type Item struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type putBody struct {
	Value string `json:"value"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a ports.Adapter backed by the remote settings API. The bearer
// token may be supplied after construction, once authentication completes.
type Client struct {
	base *url.URL
	http *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient validates the base URL and returns a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("remote store: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote store: invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote store: unsupported scheme %q", base.Scheme)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, http: httpClient, token: opts.Token}, nil
}

// SetToken installs (or clears) the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// GetItem implements ports.Adapter.
func (c *Client) GetItem(ctx context.Context, key string) (string, bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, key, nil)
	if err != nil {
		return "", false, derrors.NewStorageError(backendName, "get", key, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, derrors.NewStorageError(backendName, "get", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var item Item
		if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
			return "", false, derrors.NewStorageError(backendName, "get", key, fmt.Errorf("decode response: %w", err))
		}
		return item.Value, true, nil
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, derrors.NewStorageError(backendName, "get", key, statusError(resp))
	}
}

// SetItem implements ports.Adapter.
func (c *Client) SetItem(ctx context.Context, key, value string) error {
	body, err := json.Marshal(putBody{Value: value})
	if err != nil {
		return derrors.NewStorageError(backendName, "set", key, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, key, bytes.NewReader(body))
	if err != nil {
		return derrors.NewStorageError(backendName, "set", key, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return derrors.NewStorageError(backendName, "set", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return derrors.NewStorageError(backendName, "set", key, statusError(resp))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, key string, body io.Reader) (*http.Request, error) {
	endpoint := c.base.String() + settingsPath + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	text := strings.TrimSpace(string(msg))
	if text == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, text)
}

var _ ports.Adapter = (*Client)(nil)
