package pages

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetReturnsBodyAndSendsHeaders(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<p>hello</p>"))
	}))
	defer srv.Close()

	client := New(zap.NewNop(), time.Second)
	body, err := client.Get(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", body)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestGetDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<h4>Assessment length</h4>"))
		_ = gz.Close()
	}))
	defer srv.Close()

	body, err := New(nil, 0).Get(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<h4>Assessment length</h4>", body)
}

func TestGetFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(nil, time.Second).Get(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGetHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(nil, 50*time.Millisecond).Get(context.Background(), srv.URL)

	require.Error(t, err)
}
