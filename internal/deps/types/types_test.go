package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependencyType(t *testing.T) {
	for _, dt := range AllDependencyTypes() {
		got, err := ParseDependencyType(string(dt))
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}

	aliases := map[string]DependencyType{
		"Node":           AzureNode,
		"functions-node": FunctionNode,
		"spfx-node":      SPFxNode,
		"DOTNET":         Dotnet,
		"func":           FuncCoreTools,
		"teamsapptester": TestTool,
		" vxtestapp ":    VxTestApp,
	}
	for in, want := range aliases {
		got, err := ParseDependencyType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDependencyType("python")
	assert.ErrorIs(t, err, ErrUnknownDependencyType)
}

func TestIsRuntime(t *testing.T) {
	assert.True(t, AzureNode.IsRuntime())
	assert.True(t, SPFxNode.IsRuntime())
	assert.False(t, Dotnet.IsRuntime())
}

func TestDepsErrorPredicates(t *testing.T) {
	cause := errors.New("exit status 1")
	err := fmt.Errorf("resolve: %w", NewInstallFailedError("npm install failed", DefaultHelpLink, cause))

	assert.True(t, IsInstallFailed(err))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "install_failed: npm install failed: exit status 1", errors.Unwrap(err).Error())

	assert.True(t, IsInstallFailed(NewNeedsPackageManagerError("ngrok", DefaultHelpLink)))
	assert.True(t, IsInvalidOptions(NewInvalidOptionsError("bad", DefaultHelpLink)))
	assert.True(t, IsValidationFailed(NewValidationFailedError("bad", DefaultHelpLink, nil)))
	assert.True(t, IsVersionMismatch(NewVersionMismatchError("bad", DefaultHelpLink)))
	assert.True(t, IsPlatformNotSupported(NewPlatformNotSupportedError("bad", DefaultHelpLink)))
	assert.True(t, IsNotSupported(NewNotSupportedError("bad", DefaultHelpLink)))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil, DefaultHelpLink))

	typed := NewNotFoundError("node missing", NodeNotFoundHelpLink)
	assert.Same(t, typed, Classify(fmt.Errorf("wrapped: %w", typed), DefaultHelpLink))

	raw := errors.New("permission denied")
	de := Classify(raw, DefaultHelpLink)
	assert.Equal(t, KindInstallFailed, de.Kind)
	assert.Equal(t, DefaultHelpLink, de.HelpLink)
	assert.ErrorIs(t, de, raw)
}
