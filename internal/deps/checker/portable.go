package checker

import (
	"path/filepath"
	"strings"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
)

// portableTool is the on-disk layout of a tool installed under <root>/bin/<dir>/<version>.
// An unversioned legacy install lives directly in <root>/bin/<dir> with its
// sentinel at <root>/<sentinel>.
type portableTool struct {
	env          Env
	dir          string
	sentinelName string
}

func (p portableTool) root() string {
	return p.env.binDir(p.dir)
}

func (p portableTool) installPath(v string) string {
	if v == "" {
		return p.root()
	}
	return filepath.Join(p.root(), v)
}

func (p portableTool) install(v string) fileutil.VerifiedInstall {
	if v == "" {
		return fileutil.VerifiedInstall{
			Dir:      p.root(),
			Sentinel: filepath.Join(p.env.ConfigRoot, p.sentinelName),
		}
	}
	return fileutil.NewVerifiedInstall(p.installPath(v), p.sentinelName, v)
}

// versions lists the version-named install directories, newest first, inside versionRange.
func (p portableTool) versions(versionRange string) []string {
	return version.SatisfyingDesc(fileutil.ListDirs(p.root()), versionRange)
}

// newTemp reserves a temp install directory next to the versioned ones.
func (p portableTool) newTemp() fileutil.VerifiedInstall {
	return fileutil.NewVerifiedInstall(p.installPath(fileutil.TempDirName()), p.sentinelName, "")
}

// removeStaleTemps wipes partial installs left behind by interrupted runs.
func (p portableTool) removeStaleTemps() {
	for _, name := range fileutil.ListDirs(p.root()) {
		if strings.HasPrefix(name, "tmp-") {
			_ = fileutil.Cleanup(filepath.Join(p.root(), name))
		}
	}
}
