package types

import (
	"context"
	"fmt"
	"strings"
)

// DependencyType identifies one of the external tools the engine knows how to check.
type DependencyType string

const (
	AzureNode     DependencyType = "runtime-cloud-host"
	FunctionNode  DependencyType = "runtime-functions-host"
	SPFxNode      DependencyType = "runtime-spfx-host"
	Dotnet        DependencyType = "dotnet-sdk"
	FuncCoreTools DependencyType = "func-core-tools"
	Ngrok         DependencyType = "ngrok"
	TestTool      DependencyType = "test-tool"
	VxTestApp     DependencyType = "vx-test-app"
)

// AllDependencyTypes returns the closed set of supported dependency types.
func AllDependencyTypes() []DependencyType {
	return []DependencyType{
		AzureNode,
		FunctionNode,
		SPFxNode,
		Dotnet,
		FuncCoreTools,
		Ngrok,
		TestTool,
		VxTestApp,
	}
}

// IsRuntime reports whether t is one of the node runtime contexts.
func (t DependencyType) IsRuntime() bool {
	return t == AzureNode || t == FunctionNode || t == SPFxNode
}

// ParseDependencyType maps user input (case-insensitive) to a DependencyType.
func ParseDependencyType(s string) (DependencyType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllDependencyTypes() {
		if string(t) == needle {
			return t, nil
		}
	}
	switch needle {
	case "node", "azure-node":
		return AzureNode, nil
	case "function-node", "functions-node":
		return FunctionNode, nil
	case "spfx-node":
		return SPFxNode, nil
	case "dotnet":
		return Dotnet, nil
	case "func", "func-tools":
		return FuncCoreTools, nil
	case "test-tool-cli", "teamsapptester":
		return TestTool, nil
	case "vxtestapp":
		return VxTestApp, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownDependencyType, s)
}

// DependencyDetails carries tool-specific facts about an installation.
type DependencyDetails struct {
	IsLinuxSupported  bool     `json:"isLinuxSupported" yaml:"isLinuxSupported"`
	SupportedVersions []string `json:"supportedVersions" yaml:"supportedVersions"`
	InstallVersion    string   `json:"installVersion,omitempty" yaml:"installVersion,omitempty"`
	BinFolders        []string `json:"binFolders,omitempty" yaml:"binFolders,omitempty"`
}

// DependencyStatus is the uniform result of checking or resolving a dependency.
// A status with IsInstalled set always has a non-empty Command.
type DependencyStatus struct {
	Name                string            `json:"name" yaml:"name"`
	Type                DependencyType    `json:"type" yaml:"type"`
	IsInstalled         bool              `json:"isInstalled" yaml:"isInstalled"`
	Command             string            `json:"command" yaml:"command"`
	Details             DependencyDetails `json:"details" yaml:"details"`
	Error               *DepsError        `json:"error,omitempty" yaml:"error,omitempty"`
	TelemetryProperties map[string]string `json:"telemetryProperties,omitempty" yaml:"telemetryProperties,omitempty"`
}

// DependencyInfo describes what a checker supports, independent of the machine state.
type DependencyInfo struct {
	Name              string         `json:"name" yaml:"name"`
	Type              DependencyType `json:"type" yaml:"type"`
	InstallVersion    string         `json:"installVersion,omitempty" yaml:"installVersion,omitempty"`
	SupportedVersions []string       `json:"supportedVersions" yaml:"supportedVersions"`
	IsLinuxSupported  bool           `json:"isLinuxSupported" yaml:"isLinuxSupported"`
}

// Checker detects and, when asked to resolve, installs a single dependency.
type Checker interface {
	// IsInstalled never fails; any detection error degrades to false.
	IsInstalled(ctx context.Context) bool
	// GetInstallationInfo detects the current state without installing anything.
	GetInstallationInfo(ctx context.Context) (*DependencyStatus, error)
	// Resolve detects and installs when needed. The returned status is never nil;
	// when the dependency could not be resolved the error is also set on status.Error.
	Resolve(ctx context.Context) (*DependencyStatus, error)
	Command(ctx context.Context) string
	GetDepsInfo(ctx context.Context) (*DependencyInfo, error)
}
