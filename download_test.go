package sidegate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestDownloader(max int64) *httpDownloader {
	return newHTTPDownloader(DownloadConfig{
		Timeout:         5 * time.Second,
		MaxResponseSize: max,
		// httptest binds to loopback, which the SSRF guard rejects.
		AllowPrivateHosts: true,
	}, slog.New(slog.DiscardHandler))
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ipa-bytes"))
	}))
	defer srv.Close()

	data, err := newTestDownloader(0).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "ipa-bytes" {
		t.Fatalf("unexpected body: %q", data)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestDownloader(0).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	_, err := newTestDownloader(16).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed for oversized body, got %v", err)
	}
}

func TestFetchAcceptsBodyAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 16))
	}))
	defer srv.Close()

	data, err := newTestDownloader(16).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(data))
	}
}

func TestFetchToWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ipa-bytes"))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	dest := "/cache/artifacts/SideStore.ipa"
	if err := newTestDownloader(0).FetchTo(context.Background(), fs, srv.URL, dest); err != nil {
		t.Fatalf("fetch to: %v", err)
	}

	data, err := afero.ReadFile(fs, dest)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "ipa-bytes" {
		t.Fatalf("unexpected file contents: %q", data)
	}
}

func TestFetchBlocksPrivateHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("should never arrive"))
	}))
	defer srv.Close()

	guarded := newHTTPDownloader(DownloadConfig{
		Timeout: 5 * time.Second,
	}, slog.New(slog.DiscardHandler))

	if _, err := guarded.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected loopback fetch blocked, got %v", err)
	}
}
