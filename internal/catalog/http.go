package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "mediatracker/1.0"
	maxBodyBytes     = 8 << 20
)

// HTTPClient is the transport every adapter shares. It issues exactly one
// request per call: no retries, no backoff. The client timeout is the only
// deadline a catalog gets unless the caller's context is shorter.
type HTTPClient struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPClient builds the shared transport. timeout<=0 means 10s.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: defaultUserAgent,
	}
}

func (h *HTTPClient) client() *http.Client {
	if h == nil || h.Client == nil {
		return http.DefaultClient
	}
	return h.Client
}

// getJSON fetches rawURL and decodes the body into out. Every failure is a
// *SourceError so callers can log it with its kind.
func (h *HTTPClient) getJSON(ctx context.Context, source, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &SourceError{Source: source, Kind: KindSourceUnavailable, Err: fmt.Errorf("build request: %w", err)}
	}
	return h.doJSON(req, source, out)
}

func (h *HTTPClient) doJSON(req *http.Request, source string, out any) error {
	ua := defaultUserAgent
	if h != nil && h.UserAgent != "" {
		ua = h.UserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := h.client().Do(req)
	if err != nil {
		return &SourceError{Source: source, Kind: KindSourceUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &SourceError{
			Source: source,
			Kind:   KindSourceUnavailable,
			Err:    &StatusError{Source: source, URL: redactURL(req.URL.String()), StatusCode: resp.StatusCode},
		}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return &SourceError{Source: source, Kind: KindMalformedUpstream, Err: err}
	}
	defer body.Close()

	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(out); err != nil {
		return &SourceError{Source: source, Kind: KindMalformedUpstream, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}

// decodeBody undoes the content encodings we advertised.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

// redactURL strips credentials carried in query strings before the URL ends
// up in a log line.
func redactURL(raw string) string {
	for _, key := range []string{"api_key=", "key="} {
		i := strings.Index(raw, key)
		if i < 0 {
			continue
		}
		end := strings.IndexByte(raw[i:], '&')
		if end < 0 {
			raw = raw[:i+len(key)] + "REDACTED"
		} else {
			raw = raw[:i+len(key)] + "REDACTED" + raw[i+end:]
		}
	}
	return raw
}
