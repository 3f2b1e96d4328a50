package fileutil

import (
	"os"
	"path/filepath"
)

// VerifiedInstall pairs a portable install directory with its completion sentinel.
// The directory is only trusted while the sentinel exists.
type VerifiedInstall struct {
	Dir      string
	Sentinel string
	Version  string
}

// NewVerifiedInstall uses a sentinel named sentinelName inside dir.
func NewVerifiedInstall(dir, sentinelName, version string) VerifiedInstall {
	return VerifiedInstall{
		Dir:      dir,
		Sentinel: filepath.Join(dir, sentinelName),
		Version:  version,
	}
}

// Valid reports whether both the directory and its sentinel are present.
func (v VerifiedInstall) Valid() bool {
	fi, err := os.Stat(v.Dir)
	if err != nil || !fi.IsDir() {
		return false
	}
	return Exists(v.Sentinel)
}

// Commit marks the install as complete.
func (v VerifiedInstall) Commit() error {
	return WriteSentinel(v.Sentinel)
}

// Discard removes the install directory and, when kept elsewhere, its sentinel.
func (v VerifiedInstall) Discard() error {
	if err := Cleanup(v.Dir); err != nil {
		return err
	}
	return Cleanup(v.Sentinel)
}

// MoveTo renames the install directory to dir, keeping the sentinel name.
func (v VerifiedInstall) MoveTo(dir, version string) (VerifiedInstall, error) {
	moved := VerifiedInstall{
		Dir:      dir,
		Sentinel: filepath.Join(dir, filepath.Base(v.Sentinel)),
		Version:  version,
	}
	if err := Rename(v.Dir, dir); err != nil {
		return VerifiedInstall{}, err
	}
	return moved, nil
}
