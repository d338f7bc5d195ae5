package fulltext

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(Options{Timeout: 2 * time.Second, MaxRetries: 3, Backoff: time.Millisecond})
}

func TestFetchHTMLRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "zh-CN,zh;q=0.9", r.Header.Get("Accept-Language"))
		assert.Equal(t, true, strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0"))
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	body, err := newTestFetcher().FetchHTML(context.Background(), srv.URL)

	assert.Equal(t, nil, err)
	assert.Equal(t, "<html><body>ok</body></html>", body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchHTMLGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFetcher().FetchHTML(context.Background(), srv.URL)

	var statusErr *StatusError
	assert.Equal(t, true, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestFetchHTMLDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().FetchHTML(context.Background(), srv.URL)

	assert.NotEqual(t, nil, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchTextParagraphFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>t</title></head><body><p>短段落一</p><p>短段落二</p><script>var x = 1;</script></body></html>`))
	}))
	defer srv.Close()

	page, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/news/1")

	assert.Equal(t, nil, err)
	assert.Equal(t, srv.URL+"/news/1", page.URL)
	assert.Equal(t, "t", page.Title)
	assert.Equal(t, true, strings.Contains(page.Text, "短段落一"))
	assert.Equal(t, true, strings.Contains(page.Text, "短段落二"))
	assert.Equal(t, false, strings.Contains(page.Text, "var x"))
}
