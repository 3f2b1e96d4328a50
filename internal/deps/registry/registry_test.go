package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/checker"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/commander"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

func TestCreateChecker(t *testing.T) {
	env := checker.Env{
		OS:         "darwin",
		ConfigRoot: t.TempDir(),
		Commander:  commander.NewMock(),
		Settings:   checker.DefaultSettings(),
	}
	reg := New(env)

	for _, dt := range types.AllDependencyTypes() {
		t.Run(string(dt), func(t *testing.T) {
			c, err := reg.CreateChecker(dt, logger.NewNoOpDepsLogger(), telemetry.NewNoop())
			require.NoError(t, err)
			info, err := c.GetDepsInfo(context.Background())
			require.NoError(t, err)
			assert.Equal(t, dt, info.Type)
		})
	}

	t.Run("fresh instance per call", func(t *testing.T) {
		a, _ := reg.CreateChecker(types.Ngrok, nil, nil)
		b, _ := reg.CreateChecker(types.Ngrok, nil, nil)
		assert.NotSame(t, a, b)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := reg.CreateChecker(types.DependencyType("python"), nil, nil)
		assert.True(t, errors.Is(err, types.ErrUnknownDependencyType))
	})
}
