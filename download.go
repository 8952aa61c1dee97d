package sidegate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/doyensec/safeurl"
	"github.com/spf13/afero"
)

// httpDownloader fetches blobs over HTTP through an SSRF-guarded client:
// private, loopback, link-local, and metadata addresses are blocked at the
// dialer after DNS resolution. Downloads are read to completion in memory;
// companion packages are tens of megabytes, not gigabytes.
type httpDownloader struct {
	client *http.Client
	max    int64
	logger *slog.Logger
}

func newHTTPDownloader(cfg DownloadConfig, logger *slog.Logger) *httpDownloader {
	var client *http.Client
	if cfg.AllowPrivateHosts {
		client = &http.Client{Timeout: cfg.Timeout}
	} else {
		config := safeurl.GetConfigBuilder().
			SetTimeout(cfg.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		client = safeurl.Client(config).Client
	}
	return &httpDownloader{
		client: client,
		max:    cfg.MaxResponseSize,
		logger: logger,
	}
}

// Fetch downloads url and returns the body. Non-2xx responses, transport
// errors, and bodies larger than MaxResponseSize fail with ErrDownloadFailed.
func (d *httpDownloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	d.logger.Info("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("download transport failure", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Error("download rejected", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if d.max > 0 {
		body = io.LimitReader(resp.Body, d.max+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if d.max > 0 && int64(len(data)) > d.max {
		d.logger.Error("download rejected", "url", url, "limit", d.max)
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrDownloadFailed, d.max)
	}

	d.logger.Info("download complete", "url", url, "bytes", len(data))
	return data, nil
}

// FetchTo downloads url and writes the body to dest on fs, creating parent
// directories as needed.
func (d *httpDownloader) FetchTo(ctx context.Context, fs afero.Fs, url, dest string) error {
	data, err := d.Fetch(ctx, url)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
		}
	}
	if err := afero.WriteFile(fs, dest, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return nil
}
