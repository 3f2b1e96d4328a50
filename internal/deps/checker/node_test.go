package checker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

func TestNodeChecker_VersionBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		profile   RuntimeProfile
		output    string
		installed bool
		kind      types.ErrorKind
	}{
		{name: "azure lowest", profile: AzureNodeProfile, output: "v14.0.0\n", installed: true},
		{name: "azure highest", profile: AzureNodeProfile, output: "v18.17.1", installed: true},
		{name: "azure below range", profile: AzureNodeProfile, output: "v12.22.0", kind: types.KindNotSupported},
		{name: "azure above range", profile: AzureNodeProfile, output: "v20.1.0", kind: types.KindNotSupported},
		{name: "functions accepts 16", profile: FunctionNodeProfile, output: "v16.20.2", installed: true},
		{name: "spfx lowest", profile: SPFxNodeProfile, output: "v12.22.12", installed: true},
		{name: "spfx above range", profile: SPFxNodeProfile, output: "v18.0.0", kind: types.KindNotSupported},
		{name: "unparseable output", profile: AzureNodeProfile, output: "node", kind: types.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, mock, _ := newTestEnv(t, "darwin")
			mock.Responses["node --version"] = tt.output
			c := NewNodeChecker(env, tt.profile, nil, nil)

			status, err := c.Resolve(context.Background())
			require.NotNil(t, status)
			assert.Equal(t, tt.installed, status.IsInstalled)
			assert.Equal(t, tt.profile.Type, status.Type)
			if tt.installed {
				assert.NoError(t, err)
				assert.Nil(t, status.Error)
				assert.Equal(t, "node", status.Command)
				return
			}
			require.Error(t, err)
			require.NotNil(t, status.Error)
			assert.Equal(t, tt.kind, status.Error.Kind)
		})
	}
}

func TestNodeChecker_MissingAndUnsupportedAreDistinct(t *testing.T) {
	env, mock, _ := newTestEnv(t, "darwin")
	mock.Errors["node --version"] = errors.New("exec: \"node\": executable file not found in $PATH")
	rec := &telemetry.Recorder{}
	c := NewNodeChecker(env, AzureNodeProfile, nil, rec)

	status, err := c.Resolve(context.Background())
	assert.True(t, types.IsNotFound(err))
	assert.Equal(t, types.NodeNotFoundHelpLink, status.Error.HelpLink)
	assert.True(t, rec.Has(telemetry.EventNodeNotFound))
	assert.False(t, rec.Has(telemetry.EventNodeNotSupported))

	env2, mock2, _ := newTestEnv(t, "darwin")
	mock2.Responses["node --version"] = "v10.24.1"
	rec2 := &telemetry.Recorder{}
	c2 := NewNodeChecker(env2, AzureNodeProfile, nil, rec2)

	status, err = c2.Resolve(context.Background())
	assert.True(t, types.IsNotSupported(err))
	assert.Equal(t, types.NodeNotSupportedForAzureHelpLink, status.Error.HelpLink)
	assert.Equal(t, "v10.24.1", status.Details.InstallVersion)

	ev, ok := rec2.Find(telemetry.EventNodeNotSupported)
	require.True(t, ok)
	assert.Equal(t, "10.24.1", ev.Properties[telemetry.PropDetectedVersion])
	assert.Equal(t, "v14, v16, v18", ev.Properties[telemetry.PropSupportedVersions])
}

func TestNodeChecker_IsInstalledNeverFails(t *testing.T) {
	env, mock, _ := newTestEnv(t, "windows")
	mock.Errors["node --version"] = errors.New("boom")
	c := NewNodeChecker(env, SPFxNodeProfile, nil, nil)

	assert.False(t, c.IsInstalled(context.Background()))
	assert.Equal(t, "node", c.Command(context.Background()))

	info, err := c.GetDepsInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"v12", "v14", "v16"}, info.SupportedVersions)
	assert.True(t, info.IsLinuxSupported)
}
