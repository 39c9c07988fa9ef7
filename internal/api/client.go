package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"golang.org/x/time/rate"

	"vidx/internal/shared"
)

// MaxUploadSize is the default client-side cap on video uploads. Files
// over the cap are rejected before any network call. Override per client
// with [Client.SetUploadLimit].
const MaxUploadSize int64 = 500 << 20

// TokenProvider supplies the bearer token for authenticated requests.
// The second return value is false when no session token is available.
type TokenProvider interface {
	Token() (string, bool)
}

// TokenFunc adapts a plain function into a [TokenProvider].
type TokenFunc func() (string, bool)

func (f TokenFunc) Token() (string, bool) { return f() }

// Client issues REST calls to the video processing backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenProvider
	limiter     *rate.Limiter
	uploadLimit int64
}

// NewClient creates a Client for the backend at baseURL.
// A nil httpClient falls back to [http.DefaultClient]; a nil tokens provider
// means all requests go out unauthenticated.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenProvider) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		tokens:      tokens,
		limiter:     rate.NewLimiter(rate.Limit(10), 20),
		uploadLimit: MaxUploadSize,
	}
}

// SetUploadLimit replaces the upload size cap. Non-positive sizes keep the
// default.
func (c *Client) SetUploadLimit(maxBytes int64) {
	if maxBytes > 0 {
		c.uploadLimit = maxBytes
	}
}

// do performs a JSON request against the backend and decodes the response
// into result when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.send(req, result)
}

// upload performs a multipart POST streaming the reader as the named file field.
func (c *Client) upload(ctx context.Context, path, field, filename string, src io.Reader, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to read upload payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)

	return c.send(req, result)
}

// authorize attaches the bearer token when a provider has one. The provider
// is consulted on every request so a login or logout mid-run takes effect
// immediately.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) send(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, body, resp.Header)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
