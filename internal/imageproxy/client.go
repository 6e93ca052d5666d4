// Package imageproxy fetches third-party-hosted images on behalf of the
// browser so they can be served from our origin with long cache lifetimes.
package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"evaladmin/internal/apperr"
)

// CacheControl is sent with every proxied image. Image URLs are content
// addressed, so a cached copy never goes stale.
const CacheControl = "public, max-age=31536000, immutable"

// ErrHostNotAllowed is returned for URLs outside the allow list.
var ErrHostNotAllowed = errors.New("image host not allowed")

// Image is a fetched image body.
type Image struct {
	ContentType string
	Data        []byte
}

// Client fetches images from allowed hosts.
type Client struct {
	Hosts    []string
	MaxBytes int64
	HTTP     *http.Client
}

// New creates a client with configurable timeout.
func New(hosts []string, maxBytes int64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{Hosts: hosts, MaxBytes: maxBytes}
	c.HTTP = &http.Client{Timeout: timeout, CheckRedirect: c.checkRedirect}
	return c
}

// checkRedirect applies the host allowlist to every redirect hop.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 5 {
		return errors.New("too many redirects")
	}
	if !c.Allowed(req.URL.String()) {
		return fmt.Errorf("redirect to %s: %w", req.URL.Hostname(), ErrHostNotAllowed)
	}
	return nil
}

// Allowed reports whether rawURL is an http(s) URL on an allowed host or one
// of its subdomains.
func (c *Client) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range c.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
			return true
		}
	}
	return false
}

// Fetch downloads an image. Upstream 404s map to apperr.ErrNotFound, other
// upstream failures to apperr.ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	if rawURL == "" {
		return nil, apperr.NewValidationError("url is required", apperr.FieldError{Field: "url", Error: "is required"})
	}
	if !c.Allowed(rawURL) {
		return nil, apperr.NewValidationError(ErrHostNotAllowed.Error(), apperr.FieldError{Field: "url", Error: "host not allowed"})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.HTTP.Do(req)
	if errors.Is(err, ErrHostNotAllowed) {
		return nil, apperr.NewValidationError(ErrHostNotAllowed.Error(), apperr.FieldError{Field: "url", Error: "redirects to a host that is not allowed"})
	}
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", errors.Join(apperr.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("image upstream %s: %w", resp.Status, apperr.ErrUnavailable)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "image/") {
		return nil, fmt.Errorf("upstream returned %q: %w", ct, apperr.ErrUnavailable)
	}

	body := io.Reader(resp.Body)
	if c.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, c.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", errors.Join(apperr.ErrUnavailable, err))
	}
	if c.MaxBytes > 0 && int64(len(data)) > c.MaxBytes {
		return nil, apperr.NewValidationError("image too large")
	}
	return &Image{ContentType: ct, Data: data}, nil
}
