// Package client talks to a running kvlinks server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/undeadops/kvlinks/internal/mapping"
)

var ErrNotFound = errors.New("not found")

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Body)
}

type Client struct {
	inner         *resty.Client
	serverAddress string
}

type Option func(*Client)

func New(options ...Option) *Client {
	client := &Client{
		inner:         resty.New(),
		serverAddress: "http://localhost:5000",
	}

	// Redirects are the payload of Resolve, never follow them
	client.inner.SetRedirectPolicy(
		resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}),
	)

	for _, opt := range options {
		opt(client)
	}

	return client
}

func WithServerAddress(addr string) Option {
	return func(client *Client) {
		client.serverAddress = strings.TrimRight(addr, "/")
	}
}

// Create stores key -> value and returns the short URL.
func (c *Client) Create(ctx context.Context, key, value string) (string, error) {
	const op = "create mapping"

	var result struct {
		Message  string `json:"message"`
		ShortURL string `json:"shortUrl"`
	}
	response, err := c.inner.R().
		SetContext(ctx).
		SetBody(map[string]string{"key": key, "value": value}).
		SetResult(&result).
		Post(c.serverAddress + "/create")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if response.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("%s: %w", op, statusError(response))
	}

	return result.ShortURL, nil
}

// List returns every mapping known to the server.
func (c *Client) List(ctx context.Context) ([]mapping.Mapping, error) {
	const op = "list mappings"

	var result []mapping.Mapping
	response, err := c.inner.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.serverAddress + "/list")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", op, statusError(response))
	}

	return result, nil
}

// Resolve returns the URL the server redirects key to.
func (c *Client) Resolve(ctx context.Context, key string) (string, error) {
	const op = "resolve key"

	response, err := c.inner.R().
		SetContext(ctx).
		Get(c.serverAddress + "/" + escapeKey(key))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	switch response.StatusCode() {
	case http.StatusMovedPermanently:
		return response.Header().Get("Location"), nil
	case http.StatusNotFound:
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return "", fmt.Errorf("%s: %w", op, statusError(response))
	}
}

// escapeKey escapes each path segment of key so '?', '#' and '%' reach the
// server as part of the key. The server decodes the path back to the key.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func statusError(response *resty.Response) error {
	return &StatusError{Status: response.StatusCode(), Body: response.String()}
}
