package checker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/download"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

const (
	vxTestAppName     = "Video Extensibility Test App"
	vxTestAppArtifact = "video-extensibility-test-app"

	DefaultVxTestAppVersion    = "1.0.4"
	DefaultVxTestAppSymlinkDir = "devTools/video-extensibility-test-app"
	// DefaultVxTestAppBaseURL is the release root; archives live under v<version>/.
	DefaultVxTestAppBaseURL = "https://github.com/microsoft/teams-video-extensibility-test-app/releases/download"
)

// VxTestAppOptions pins the companion app version and its project link.
// Set both or neither.
type VxTestAppOptions struct {
	Version    string
	SymlinkDir string
}

// VxTestAppChecker keeps one machine-wide copy per version and links it into the project.
type VxTestAppChecker struct {
	base
	opts    VxTestAppOptions
	optsErr *types.DepsError
}

// NewVxTestAppChecker creates the companion app checker from env.Settings.VxTestApp.
func NewVxTestAppChecker(env Env, log logger.DepsLogger, tel telemetry.Telemetry) *VxTestAppChecker {
	c := &VxTestAppChecker{base: newBase(env, log, tel)}
	c.opts, c.optsErr = resolveVxTestAppOptions(env.Settings.VxTestApp)
	return c
}

func resolveVxTestAppOptions(opts VxTestAppOptions) (VxTestAppOptions, *types.DepsError) {
	switch {
	case opts.Version == "" && opts.SymlinkDir == "":
		return VxTestAppOptions{Version: DefaultVxTestAppVersion, SymlinkDir: DefaultVxTestAppSymlinkDir}, nil
	case opts.Version == "" || opts.SymlinkDir == "":
		return opts, types.NewInvalidOptionsError(
			fmt.Sprintf("%s needs both a version and a symlink directory, got version=%q symlinkDir=%q.",
				vxTestAppName, opts.Version, opts.SymlinkDir),
			types.VxTestAppHelpLink)
	}
	return opts, nil
}

func (c *VxTestAppChecker) execName() string {
	if c.env.isWindows() {
		return vxTestAppArtifact + ".exe"
	}
	return vxTestAppArtifact + ".app"
}

func (c *VxTestAppChecker) archiveName() string {
	goos := "win32"
	if c.env.isMac() {
		goos = "darwin"
	}
	arch := "x64"
	if c.env.Arch == "arm64" {
		arch = "arm64"
	}
	return fmt.Sprintf("%s-%s-%s.zip", vxTestAppArtifact, goos, arch)
}

func (c *VxTestAppChecker) downloadURL() string {
	base := c.env.Settings.VxTestAppBaseURL
	if base == "" {
		base = DefaultVxTestAppBaseURL
	}
	return fmt.Sprintf("%s/v%s/%s", strings.TrimSuffix(base, "/"), c.opts.Version, c.archiveName())
}

func (c *VxTestAppChecker) global() fileutil.VerifiedInstall {
	return fileutil.NewVerifiedInstall(c.env.binDir("vxTestApp", c.opts.Version), "vxTestApp-sentinel", c.opts.Version)
}

func (c *VxTestAppChecker) link() string {
	return c.env.projectPath(c.opts.SymlinkDir)
}

func (c *VxTestAppChecker) status(installed bool) *types.DependencyStatus {
	status := &types.DependencyStatus{
		Name:        vxTestAppName,
		Type:        types.VxTestApp,
		IsInstalled: installed,
		Command:     c.execName(),
		Details: types.DependencyDetails{
			IsLinuxSupported:  false,
			InstallVersion:    c.opts.Version,
			SupportedVersions: []string{c.opts.Version},
		},
	}
	if installed {
		status.Details.BinFolders = []string{c.link()}
	}
	return status
}

func (c *VxTestAppChecker) linked() bool {
	return c.global().Valid() && fileutil.Exists(filepath.Join(c.link(), c.execName()))
}

func (c *VxTestAppChecker) GetInstallationInfo(context.Context) (*types.DependencyStatus, error) {
	if c.optsErr != nil {
		status := c.status(false)
		status.Error = c.optsErr
		return status, nil
	}
	return c.status(c.linked()), nil
}

func (c *VxTestAppChecker) Resolve(ctx context.Context) (*types.DependencyStatus, error) {
	defer c.logger.Cleanup()

	if err := c.resolve(ctx); err != nil {
		return c.fail(c.status(false), err, types.VxTestAppHelpLink)
	}
	return c.status(true), nil
}

func (c *VxTestAppChecker) resolve(ctx context.Context) error {
	if c.optsErr != nil {
		return c.optsErr
	}
	if c.env.isLinux() {
		return types.NewPlatformNotSupportedError(
			fmt.Sprintf("%s is not supported on Linux.", vxTestAppName), types.VxTestAppHelpLink)
	}

	global := c.global()
	if !global.Valid() {
		err := c.telemetry.SendEventWithDuration(ctx, telemetry.EventVxTestAppInstall, func(ctx context.Context) error {
			var err error
			global, err = c.installGlobal(ctx)
			return err
		})
		if err != nil {
			c.telemetry.SendSystemErrorEvent(telemetry.EventVxTestAppInstallError, err.Error(), "")
			return err
		}
	}

	link := c.link()
	if err := fileutil.CreateSymlink(global.Dir, link); err != nil {
		c.logger.Debug(fmt.Sprintf("failed to link %s: %v", link, err))
	}
	if !fileutil.Exists(filepath.Join(link, c.execName())) {
		return types.NewValidationFailedError(
			fmt.Sprintf("%s post-install verification failed: %s is not reachable through %s.", vxTestAppName, c.execName(), link),
			types.VxTestAppHelpLink, nil)
	}
	return nil
}

// installGlobal downloads and unpacks the archive into a temp dir that is renamed into place.
func (c *VxTestAppChecker) installGlobal(ctx context.Context) (fileutil.VerifiedInstall, error) {
	root := c.env.binDir("vxTestApp")
	tmpName := fileutil.TempDirName()
	archive := filepath.Join(root, tmpName+".zip")
	defer func() { _ = os.Remove(archive) }()

	url := c.downloadURL()
	c.logger.Info(fmt.Sprintf("Downloading %s v%s...", vxTestAppName, c.opts.Version))
	if err := c.env.Downloader.DownloadFile(ctx, url, archive); err != nil {
		return fileutil.VerifiedInstall{}, types.NewInstallFailedError(
			fmt.Sprintf("Failed to download %s from %s.", vxTestAppName, url), types.VxTestAppHelpLink, err)
	}

	tmp := fileutil.NewVerifiedInstall(filepath.Join(root, tmpName), "vxTestApp-sentinel", c.opts.Version)
	if err := download.Unzip(archive, tmp.Dir); err != nil {
		_ = tmp.Discard()
		return fileutil.VerifiedInstall{}, types.NewInstallFailedError(
			fmt.Sprintf("Failed to unpack %s.", vxTestAppName), types.VxTestAppHelpLink, err)
	}

	final, err := tmp.MoveTo(c.global().Dir, c.opts.Version)
	if err != nil {
		_ = tmp.Discard()
		return fileutil.VerifiedInstall{}, types.NewInstallFailedError(
			fmt.Sprintf("Failed to install %s.", vxTestAppName), types.VxTestAppHelpLink, err)
	}
	if err := final.Commit(); err != nil {
		return fileutil.VerifiedInstall{}, err
	}
	return final, nil
}

func (c *VxTestAppChecker) IsInstalled(context.Context) bool {
	return c.optsErr == nil && c.linked()
}

func (c *VxTestAppChecker) Command(context.Context) string { return c.execName() }

func (c *VxTestAppChecker) GetDepsInfo(context.Context) (*types.DependencyInfo, error) {
	return &types.DependencyInfo{
		Name:              vxTestAppName,
		Type:              types.VxTestApp,
		InstallVersion:    c.opts.Version,
		SupportedVersions: []string{c.opts.Version},
		IsLinuxSupported:  false,
	}, nil
}
