// Package what3words resolves coordinates to three-word addresses through
// the what3words v3 REST API.
package what3words

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/samirrijal/coords/internal/core/domain"
)

const DefaultBaseURL = "https://api.what3words.com"

// LookupError is a failed conversion. It wraps domain.ErrLookupFailed.
type LookupError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("what3words: %s: %s", e.Code, e.Message)
	case e.Err != nil:
		return "what3words: " + e.Err.Error()
	default:
		return fmt.Sprintf("what3words: unexpected status %d", e.Status)
	}
}

func (e *LookupError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrLookupFailed, e.Err}
	}
	return []error{domain.ErrLookupFailed}
}

// Config configures a Client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration
}

// Client implements ports.ThreeWordResolver.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	language string
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
	}
}

type convertResponse struct {
	Words string `json:"words"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ConvertTo3WA returns the dotted three-word address of lat/lon, e.g.
// "filled.count.soap".
func (c *Client) ConvertTo3WA(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("coordinates", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/convert-to-3wa?"+q.Encode(), nil)
	if err != nil {
		return "", &LookupError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &LookupError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", &LookupError{Status: resp.StatusCode, Err: err}
	}

	var out convertResponse
	if err := json.Unmarshal(body, &out); err != nil && resp.StatusCode == http.StatusOK {
		return "", &LookupError{Status: resp.StatusCode, Err: err}
	}
	if out.Error != nil {
		return "", &LookupError{Status: resp.StatusCode, Code: out.Error.Code, Message: out.Error.Message}
	}
	if resp.StatusCode != http.StatusOK || out.Words == "" {
		return "", &LookupError{Status: resp.StatusCode}
	}
	return out.Words, nil
}
