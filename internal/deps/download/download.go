// Package download fetches install artifacts over HTTP with retry and unpacks zip archives.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/retry"
)

// Downloader fetches URLs to disk.
type Downloader interface {
	DownloadFile(ctx context.Context, url, dst string) error
}

// Client is an HTTP Downloader whose requests go through the retry helper.
type Client struct {
	httpClient *http.Client
	retry      retry.Config
}

// NewClient creates a downloader with the default retry policy.
func NewClient() *Client {
	return NewClientWithRetry(retry.DefaultConfig())
}

// NewClientWithRetry creates a downloader with a custom retry policy.
func NewClientWithRetry(cfg retry.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		retry:      cfg,
	}
}

// DownloadFile writes the body of url to dst. Partial files are removed on failure.
func (c *Client) DownloadFile(ctx context.Context, url, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	_, err := retry.Do(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.fetch(ctx, url, dst)
	})
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &retry.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Unzip extracts the archive at src into dst, rejecting entries that escape dst.
func Unzip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	root, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	for _, f := range r.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
