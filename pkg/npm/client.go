package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/retry"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
)

const (
	// NPMRegistryBaseURL is the base URL for the npm registry API
	NPMRegistryBaseURL = "https://registry.npmjs.org"
)

// Client represents a client for the npm registry API
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Config
}

// NewClient creates a new npm client
func NewClient() *Client {
	return NewClientWithBaseURL(NPMRegistryBaseURL)
}

// NewClientWithBaseURL creates a new npm client with a custom base URL
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: retry.DefaultConfig(),
	}
}

// WithRetry overrides the retry policy used for registry requests.
func (c *Client) WithRetry(cfg retry.Config) *Client {
	c.retry = cfg
	return c
}

// Package represents npm package metadata
type Package struct {
	Name     string               `json:"name"`
	DistTags map[string]string    `json:"dist-tags"`
	Time     map[string]time.Time `json:"time"`
	Versions map[string]Version   `json:"versions"`
}

// Version represents a specific version of a package
type Version struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Engines map[string]string `json:"engines"`
	Dist    Dist              `json:"dist"`
}

// Dist represents distribution information
type Dist struct {
	Integrity string `json:"integrity"`
	Shasum    string `json:"shasum"`
	Tarball   string `json:"tarball"`
}

// GetPackage fetches package metadata from npm
func (c *Client) GetPackage(ctx context.Context, name string) (*Package, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, escapeName(name))

	pkg, err := retry.Do(ctx, c.retry, func(ctx context.Context) (*Package, error) {
		return c.getPackage(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package %s: %w", name, err)
	}
	return pkg, nil
}

func (c *Client) getPackage(ctx context.Context, url string) (*Package, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// abbreviated metadata is enough for version resolution
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &retry.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var pkg Package
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("failed to decode package response: %w", err)
	}
	return &pkg, nil
}

// GetLatestVersion fetches the latest version of a package
func (c *Client) GetLatestVersion(ctx context.Context, name string) (*Version, error) {
	pkg, err := c.GetPackage(ctx, name)
	if err != nil {
		return nil, err
	}

	latestVersion, ok := pkg.DistTags["latest"]
	if !ok {
		return nil, fmt.Errorf("no latest version found for package %s", name)
	}

	latest, ok := pkg.Versions[latestVersion]
	if !ok {
		return nil, fmt.Errorf("latest version %s not found in versions for package %s", latestVersion, name)
	}

	return &latest, nil
}

// MaxSatisfyingVersion returns the newest published version of name inside versionRange.
func (c *Client) MaxSatisfyingVersion(ctx context.Context, name, versionRange string) (string, error) {
	pkg, err := c.GetPackage(ctx, name)
	if err != nil {
		return "", err
	}
	candidates := make([]string, 0, len(pkg.Versions))
	for v := range pkg.Versions {
		candidates = append(candidates, v)
	}
	best, ok := version.MaxSatisfying(candidates, versionRange)
	if !ok {
		return "", fmt.Errorf("%w: no version of %s satisfies %s", types.ErrNoMatchingVersion, name, versionRange)
	}
	return best, nil
}

func escapeName(name string) string {
	// scoped packages are requested as @scope%2fname
	return strings.Replace(name, "/", "%2f", 1)
}
