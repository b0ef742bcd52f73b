// Package gtrans implements a client for the free Google web translation
// endpoint (translate.googleapis.com, client=gtx). Text goes in, translated
// text comes out; connectivity problems and server-side throttling are
// reported as TransientError so callers can retry them, everything else is
// permanent.
package gtrans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the gtx single-phrase translation endpoint.
const DefaultBaseURL = "https://translate.googleapis.com/translate_a/single"

// TransientError wraps a failure worth retrying: a connectivity error,
// a timeout, throttling, or a server-side 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient translation error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable translation failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Client translates text between a fixed language pair.
type Client struct {
	// BaseURL is the endpoint; overridable for tests.
	BaseURL string
	// HTTPClient performs the requests.
	HTTPClient *http.Client
	// Source and Target are language codes ("ru", "en").
	Source string
	Target string
}

// New returns a client for the given language pair. The client honors
// HTTP_PROXY/HTTPS_PROXY from the environment.
func New(source, target string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment

	return &Client{
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		Source: source,
		Target: target,
	}
}

// Translate sends one string to the endpoint and returns the translation.
// HTML entities the engine emits ("&quot;" and friends) are unescaped.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", c.Source)
	q.Set("tl", c.Target)
	q.Set("dt", "t")
	q.Set("q", text)
	endpoint := c.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &TransientError{
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned status %d: %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	out, err := parseResponse(body)
	if err != nil {
		return "", err
	}
	out = html.UnescapeString(out)
	// The endpoint sometimes answers a well-formed array with no sentence
	// chunks, e.g. [null,null,"ru"]. An empty string is never a valid
	// translation of non-empty input.
	if strings.TrimSpace(out) == "" && strings.TrimSpace(text) != "" {
		return "", fmt.Errorf("endpoint returned no translation: %s", truncate(string(body), 200))
	}
	return out, nil
}

// parseResponse extracts the translated text from the nested array the gtx
// endpoint returns: [[["Hello","Привет",...], ["world","мир",...]], ...].
// The first element of each inner sentence array is the translated chunk;
// chunks are concatenated.
func parseResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid response: %s", truncate(string(body), 200))
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var sentences [][]any
	if err := json.Unmarshal(raw[0], &sentences); err != nil {
		return "", fmt.Errorf("unexpected response shape: %s", truncate(string(body), 200))
	}

	var b strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		if chunk, ok := s[0].(string); ok {
			b.WriteString(chunk)
		}
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
