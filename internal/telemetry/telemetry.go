// Package telemetry records dependency-check events.
package telemetry

import (
	"context"
	"time"
)

// Telemetry is the event sink checkers report to.
type Telemetry interface {
	SendEvent(name string, properties map[string]string, durationSeconds float64)
	// SendEventWithDuration runs action and reports how long it took.
	SendEventWithDuration(ctx context.Context, name string, action func(ctx context.Context) error) error
	SendUserErrorEvent(name, message string)
	SendSystemErrorEvent(name, message, stack string)
}

// Event names shared by the checkers.
const (
	EventNodeNotFound     = "node-not-found"
	EventNodeNotSupported = "node-not-supported"

	EventDotnetAlreadyInstalled       = "dotnet-already-installed"
	EventDotnetInstallCompleted       = "dotnet-install-completed"
	EventDotnetInstallError           = "dotnet-install-error"
	EventDotnetInstallScriptCompleted = "dotnet-install-script-completed"
	EventDotnetInstallScriptError     = "dotnet-install-script-error"
	EventDotnetValidationError        = "dotnet-validation-error"
	EventDotnetSearchSdks             = "dotnet-search-dotnet-sdks"

	EventFuncInstall          = "func-install"
	EventFuncInstallCompleted = "func-install-completed"
	EventFuncInstallError     = "func-install-error"
	EventFuncNodeMismatch     = "func-node-mismatch"

	EventNgrokInstall          = "ngrok-install"
	EventNgrokInstallCompleted = "ngrok-install-completed"
	EventNgrokInstallError     = "ngrok-install-error"

	EventTestToolInstall       = "test-tool-install"
	EventTestToolUpdateCheck   = "test-tool-update-check"
	EventTestToolInstallError  = "test-tool-install-error"
	EventVxTestAppInstall      = "vx-test-app-install"
	EventVxTestAppInstallError = "vx-test-app-install-error"
)

// Property keys recorded on DependencyStatus.TelemetryProperties.
const (
	PropSymlinkTestToolVersion          = "symlink-test-tool-version"
	PropSymlinkTestToolVersionError     = "symlink-test-tool-version-error"
	PropSelectedPortableTestToolVersion = "selected-portable-test-tool-version"
	PropGlobalTestToolVersion           = "global-test-tool-version"
	PropGlobalTestToolVersionError      = "global-test-tool-version-error"
	PropVersioningTestToolVersionError  = "versioning-test-tool-version-error"
	PropInstalledTestToolVersion        = "installed-test-tool-version"
	PropInstallTestToolError            = "install-test-tool-error"
	PropTestToolLastUpdateTimestamp     = "test-tool-last-update-timestamp"
	PropTestToolUpdatePreviousVersion   = "test-tool-update-previous-version"
	PropTestToolUpdateError             = "test-tool-update-error"
	PropDetectedVersion                 = "detected-version"
	PropSupportedVersions               = "supported-versions"
)

// timeAction runs action and returns its duration in seconds.
func timeAction(ctx context.Context, action func(ctx context.Context) error) (float64, error) {
	start := time.Now()
	err := action(ctx)
	return time.Since(start).Seconds(), err
}

type noop struct{}

// NewNoop returns a Telemetry that drops every event.
func NewNoop() Telemetry { return noop{} }

func (noop) SendEvent(string, map[string]string, float64) {}
func (noop) SendEventWithDuration(ctx context.Context, _ string, action func(ctx context.Context) error) error {
	return action(ctx)
}
func (noop) SendUserErrorEvent(string, string)           {}
func (noop) SendSystemErrorEvent(string, string, string) {}
