package cloudinary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicID(t *testing.T) {
	tests := []struct {
		owner string
		want  string
	}{
		{"Ana Cruz", "ana_cruz"},
		{"  Dr. José  Rizal, PhD ", "dr_jos_rizal_phd"},
		{"!!!", "unnamed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublicID(tt.owner), tt.owner)
	}
}

func TestSignIgnoresKeyAndFile(t *testing.T) {
	c := &Client{APISecret: "s3cret"}
	a := c.sign(map[string]string{"timestamp": "1", "public_id": "x", "api_key": "k1"})
	b := c.sign(map[string]string{"timestamp": "1", "public_id": "x", "api_key": "k2", "file": "data"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestUploadDeletesExistingFirst(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		ids   []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		mu.Lock()
		calls = append(calls, r.URL.Path)
		ids = append(ids, r.FormValue("public_id"))
		mu.Unlock()
		assert.NotEmpty(t, r.FormValue("signature"))
		switch r.URL.Path {
		case "/demo/image/destroy":
			_, _ = io.WriteString(w, `{"result":"not found"}`)
		case "/demo/image/upload":
			_, _ = io.WriteString(w, `{"public_id":"professors/ana_cruz","secure_url":"https://res.cloudinary.com/demo/ana.jpg"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "professors")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := c.Upload(context.Background(), []byte("jpegdata"), "Ana Cruz", "ana.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/ana.jpg", url)
	assert.Equal(t, []string{"/demo/image/destroy", "/demo/image/upload"}, calls)
	assert.Equal(t, []string{"professors/ana_cruz", "ana_cruz"}, ids)
}

func TestDestroyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid Signature"}}`)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "")
	c.BaseURL = srv.URL
	err := c.DeleteByOwnerName(context.Background(), "Ana Cruz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestUploadRejectsEmpty(t *testing.T) {
	c := New("demo", "key", "secret", "")
	_, err := c.Upload(context.Background(), nil, "Ana", "a.jpg")
	assert.Error(t, err)
}
