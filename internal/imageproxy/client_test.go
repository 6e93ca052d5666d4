package imageproxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaladmin/internal/apperr"
)

func TestAllowed(t *testing.T) {
	c := New([]string{"res.cloudinary.com"}, 0, 0)
	tests := []struct {
		url  string
		want bool
	}{
		{"https://res.cloudinary.com/demo/a.jpg", true},
		{"https://eu.res.cloudinary.com/demo/a.jpg", true},
		{"https://evilres.cloudinary.com/a.jpg", false},
		{"https://res.cloudinary.com.evil.org/a.jpg", false},
		{"ftp://res.cloudinary.com/a.jpg", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Allowed(tt.url), tt.url)
	}
}

func newServer(t *testing.T) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("pngdata"))
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>"))
		case "/big.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(make([]byte, 64))
		case "/hop.png":
			http.Redirect(w, r, "/ok.png", http.StatusFound)
		case "/escape.png":
			_, port, _ := net.SplitHostPort(r.Host)
			http.Redirect(w, r, "http://localhost:"+port+"/ok.png", http.StatusFound)
		case "/broken.png":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return New([]string{u.Hostname()}, 32, 0), srv.URL
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	c, base := newServer(t)

	img, err := c.Fetch(ctx, base+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "pngdata", string(img.Data))

	img, err = c.Fetch(ctx, base+"/hop.png")
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(img.Data))

	_, err = c.Fetch(ctx, base+"/escape.png")
	assert.True(t, apperr.IsValidation(err))

	_, err = c.Fetch(ctx, base+"/missing.png")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = c.Fetch(ctx, base+"/broken.png")
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))

	_, err = c.Fetch(ctx, base+"/page")
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))

	_, err = c.Fetch(ctx, base+"/big.png")
	assert.True(t, apperr.IsValidation(err))

	_, err = c.Fetch(ctx, "https://example.org/a.png")
	assert.True(t, apperr.IsValidation(err))

	_, err = c.Fetch(ctx, "")
	assert.True(t, apperr.IsValidation(err))
}
