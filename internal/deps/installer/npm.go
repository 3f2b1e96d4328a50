// Package installer runs package-manager installs into private prefixes.
package installer

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
)

// DefaultTimeout bounds a single package-manager install.
const DefaultTimeout = 5 * time.Minute

// NpmInstaller installs npm packages into an isolated --prefix directory
type NpmInstaller struct {
	commander types.Commander
	goos      string
	timeout   time.Duration
}

// NewNpmInstaller creates a new npm installer for the given target OS
func NewNpmInstaller(commander types.Commander, goos string) *NpmInstaller {
	return &NpmInstaller{commander: commander, goos: goos, timeout: DefaultTimeout}
}

// Command returns the npm executable name for the target OS.
func (i *NpmInstaller) Command() string {
	if i.goos == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

// HasNpm reports whether `npm --version` succeeds.
func (i *NpmInstaller) HasNpm(ctx context.Context) bool {
	_, err := i.commander.Run(ctx, i.Command(), []string{"--version"}, types.RunOptions{Timeout: time.Minute})
	return err == nil
}

// Install runs `npm install <pkg> --prefix <prefix> --no-audit`.
// -f is never passed: some npm versions exit 0 on a forced install that failed.
func (i *NpmInstaller) Install(ctx context.Context, pkg, prefix string) error {
	if err := os.MkdirAll(prefix, 0755); err != nil {
		return fmt.Errorf("failed to create install prefix: %w", err)
	}
	args := []string{"install", pkg, "--prefix", prefix, "--no-audit"}
	if out, err := i.commander.Run(ctx, i.Command(), args, types.RunOptions{Timeout: i.timeout}); err != nil {
		return fmt.Errorf("npm install %s failed: %w\nOutput: %s", pkg, err, out.Stdout)
	}
	return nil
}

// PackageSpec joins a package name and version range the way npm expects.
func PackageSpec(name, versionRange string) string {
	if versionRange == "" {
		return name
	}
	return name + "@" + versionRange
}

// FindLocalTarball returns a file:// URL for the first file in dir matching pattern.
func FindLocalTarball(dir string, pattern *regexp.Regexp) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() || !pattern.MatchString(e.Name()) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		return fileURL(abs), true
	}
	return "", false
}

func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
