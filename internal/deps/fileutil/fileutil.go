// Package fileutil holds the filesystem primitives used by portable installs:
// project symlinks, atomic rename into place, sentinels and locked JSON records.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// TempDirName returns a fresh name for an in-progress install directory.
func TempDirName() string {
	return "tmp-" + uuid.NewString()[:6]
}

// Exists reports whether path exists (following symlinks).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsLink reports whether path is a symlink or a Windows junction.
func IsLink(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&(fs.ModeSymlink|fs.ModeIrregular) != 0
}

// CreateSymlink points link at target, replacing whatever link is already there.
// On Windows a directory junction is used when symlinks need elevation.
func CreateSymlink(target, link string) error {
	if err := UnlinkSymlink(link); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return fmt.Errorf("failed to create symlink parent: %w", err)
	}
	err := os.Symlink(target, link)
	if err == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		if jerr := createJunction(target, link); jerr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to link %s to %s: %w", link, target, err)
}

func createJunction(target, link string) error {
	out, err := exec.Command("cmd.exe", "/d", "/c", "mklink", "/J", link, target).CombinedOutput()
	if err != nil {
		return fmt.Errorf("mklink /J failed: %w: %s", err, out)
	}
	return nil
}

// UnlinkSymlink removes link if it is a symlink or junction. Real directories are left alone.
func UnlinkSymlink(link string) error {
	if !IsLink(link) {
		return nil
	}
	if err := os.Remove(link); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove symlink %s: %w", link, err)
	}
	return nil
}

// Rename moves src into dst, replacing any existing dst.
func Rename(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dst, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	return nil
}

// Cleanup removes path recursively. A missing path is not an error.
func Cleanup(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clean up %s: %w", path, err)
	}
	return nil
}

// EmptyDir removes the contents of dir, creating it when absent.
func EmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ListDirs returns the names of the subdirectories of dir. A missing dir yields nothing.
func ListDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// WriteSentinel creates the completion marker at path.
func WriteSentinel(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to write sentinel: %w", err)
	}
	return f.Close()
}
