package checker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/fileutil"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/installer"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/version"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

const (
	ngrokName        = "ngrok"
	ngrokPackageName = "ngrok"

	// DefaultNgrokVersion is the npm wrapper version installed when none is configured.
	DefaultNgrokVersion = "4.3.3"
)

// ngrokBinaryMajors are the tunnel binary versions the npm wrapper may ship.
var ngrokBinaryMajors = []int{2, 3}

type ngrokInstallation struct {
	installed bool
	binFolder string
}

// NgrokChecker resolves the tunnel client from a private npm install.
type NgrokChecker struct {
	base
	portable       portableTool
	packageVersion string
	selected       ngrokInstallation
}

// NewNgrokChecker creates the tunnel-client checker.
func NewNgrokChecker(env Env, log logger.DepsLogger, tel telemetry.Telemetry) *NgrokChecker {
	v := env.Settings.NgrokVersion
	if v == "" {
		v = DefaultNgrokVersion
	}
	return &NgrokChecker{
		base:           newBase(env, log, tel),
		portable:       portableTool{env: env, dir: "ngrok", sentinelName: "ngrok-sentinel"},
		packageVersion: v,
	}
}

func (c *NgrokChecker) displayName() string {
	return fmt.Sprintf("%s (v%s)", ngrokName, c.packageVersion)
}

func (c *NgrokChecker) status() *types.DependencyStatus {
	status := &types.DependencyStatus{
		Name:        ngrokName,
		Type:        types.Ngrok,
		IsInstalled: c.selected.installed,
		Command:     ngrokName,
		Details: types.DependencyDetails{
			IsLinuxSupported:  true,
			InstallVersion:    c.packageVersion,
			SupportedVersions: c.supportedVersions(),
		},
	}
	if c.selected.binFolder != "" {
		status.Details.BinFolders = []string{c.selected.binFolder}
	}
	return status
}

func (c *NgrokChecker) supportedVersions() []string {
	out := make([]string, 0, len(ngrokBinaryMajors))
	for _, m := range ngrokBinaryMajors {
		out = append(out, fmt.Sprintf("v%d", m))
	}
	return out
}

func (c *NgrokChecker) GetInstallationInfo(ctx context.Context) (*types.DependencyStatus, error) {
	c.selected = c.detect(ctx)
	return c.status(), nil
}

func (c *NgrokChecker) detect(ctx context.Context) ngrokInstallation {
	for _, v := range c.portable.versions(c.packageVersion) {
		if found := c.checkPortable(ctx, v); found.installed {
			return found
		}
	}
	if found := c.checkPortable(ctx, ""); found.installed {
		return found
	}
	if c.validBinary(ctx, "") {
		return ngrokInstallation{installed: true}
	}
	return ngrokInstallation{}
}

func (c *NgrokChecker) checkPortable(ctx context.Context, v string) ngrokInstallation {
	inst := c.portable.install(v)
	if !fileutil.Exists(inst.Sentinel) {
		return ngrokInstallation{}
	}
	folder := c.binFolder(inst.Dir)
	if !c.validBinary(ctx, folder) {
		return ngrokInstallation{}
	}
	return ngrokInstallation{installed: true, binFolder: folder}
}

func (c *NgrokChecker) binFolder(dir string) string {
	return filepath.Join(dir, "node_modules", ngrokPackageName, "bin")
}

// validBinary probes `ngrok version`. With a binFolder the probe runs through the
// shell with that folder first on PATH so the portable binary wins.
func (c *NgrokChecker) validBinary(ctx context.Context, binFolder string) bool {
	opts := types.RunOptions{Shell: c.env.shell(), Timeout: time.Minute}
	if binFolder != "" {
		if !fileutil.Exists(binFolder) {
			return false
		}
		opts.Env = c.env.pathWith(binFolder)
	}
	out, err := c.run(ctx, ngrokName, []string{"version"}, opts)
	if err != nil {
		c.logger.Debug(fmt.Sprintf("ngrok version failed: %v", err))
		return false
	}
	v, err := version.ParseTriple(out)
	if err != nil {
		return false
	}
	return version.ContainsMajor(ngrokBinaryMajors, v.Major)
}

func (c *NgrokChecker) Resolve(ctx context.Context) (*types.DependencyStatus, error) {
	defer c.logger.Cleanup()

	status, err := c.GetInstallationInfo(ctx)
	if err == nil && !status.IsInstalled {
		err = c.telemetry.SendEventWithDuration(ctx, telemetry.EventNgrokInstall, c.install)
		if err != nil {
			c.telemetry.SendSystemErrorEvent(telemetry.EventNgrokInstallError, err.Error(), "")
		} else {
			c.telemetry.SendEvent(telemetry.EventNgrokInstallCompleted, nil, 0)
			status, err = c.GetInstallationInfo(ctx)
		}
	}
	if err == nil && !status.IsInstalled {
		err = types.NewValidationFailedError(fmt.Sprintf("Failed to validate %s after install.", c.displayName()),
			types.NgrokInstallationHelpLink, nil)
	}
	if err != nil {
		return c.fail(c.status(), err, types.NgrokInstallationHelpLink)
	}
	return status, nil
}

func (c *NgrokChecker) install(ctx context.Context) error {
	if !c.npm.HasNpm(ctx) {
		return types.NewNeedsPackageManagerError(c.displayName(), types.NgrokInstallationHelpLink)
	}

	c.portable.removeStaleTemps()
	tmp := c.portable.newTemp()
	c.logger.Info(fmt.Sprintf("Installing %s...", c.displayName()))

	if err := c.npm.Install(ctx, installer.PackageSpec(ngrokPackageName, c.packageVersion), tmp.Dir); err != nil {
		_ = tmp.Discard()
		return types.NewInstallFailedError(fmt.Sprintf("Failed to install %s.", c.displayName()),
			types.NgrokInstallationHelpLink, err)
	}
	if !c.validBinary(ctx, c.binFolder(tmp.Dir)) {
		_ = tmp.Discard()
		return types.NewValidationFailedError(fmt.Sprintf("Failed to validate %s after install.", c.displayName()),
			types.NgrokInstallationHelpLink, nil)
	}

	final, err := tmp.MoveTo(c.portable.installPath(c.packageVersion), c.packageVersion)
	if err != nil {
		_ = tmp.Discard()
		return err
	}
	return final.Commit()
}

func (c *NgrokChecker) IsInstalled(ctx context.Context) bool {
	status, err := c.GetInstallationInfo(ctx)
	return err == nil && status.IsInstalled
}

func (c *NgrokChecker) Command(context.Context) string { return ngrokName }

func (c *NgrokChecker) GetDepsInfo(context.Context) (*types.DependencyInfo, error) {
	return &types.DependencyInfo{
		Name:              ngrokName,
		Type:              types.Ngrok,
		InstallVersion:    c.packageVersion,
		SupportedVersions: c.supportedVersions(),
		IsLinuxSupported:  true,
	}, nil
}
