package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 3 * time.Second
	maxResponseSize = 1 << 20 // 1MB
)

// ErrNotObject is returned when the API answers with JSON that is not an object.
var ErrNotObject = errors.New("profile payload is not a JSON object")

// ErrTrailingData is returned when the JSON value is followed by anything
// other than whitespace.
var ErrTrailingData = errors.New("decoding profile: trailing data after JSON value")

// Client talks to the upstream profile API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL. A non-positive
// timeout selects the 3s default. The timeout bounds each call on top of
// whatever deadline the caller's context already carries.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// FetchProfile issues GET {base}/profiles/{slug} and returns the decoded JSON
// object. The slug is percent-encoded as a single path segment.
func (c *Client) FetchProfile(ctx context.Context, slug string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/profiles/" + url.PathEscape(slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &StatusError{Status: resp.StatusCode}
	}

	// Numbers stay json.Number so prices keep their exact decimal text.
	var payload any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}
