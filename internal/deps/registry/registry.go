// Package registry maps dependency types to their checkers.
package registry

import (
	"fmt"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/checker"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

type constructor func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker

func nodeRuntime(profile checker.RuntimeProfile) constructor {
	return func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker {
		return checker.NewNodeChecker(env, profile, log, tel)
	}
}

// Registry manages the checker constructors
type Registry struct {
	env          checker.Env
	constructors map[types.DependencyType]constructor
}

// New creates a new registry with every supported checker
func New(env checker.Env) *Registry {
	return &Registry{
		env: env,
		constructors: map[types.DependencyType]constructor{
			types.AzureNode:    nodeRuntime(checker.AzureNodeProfile),
			types.FunctionNode: nodeRuntime(checker.FunctionNodeProfile),
			types.SPFxNode:     nodeRuntime(checker.SPFxNodeProfile),
			types.Dotnet: func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker {
				return checker.NewDotnetChecker(env, log, tel)
			},
			types.FuncCoreTools: func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker {
				return checker.NewFuncToolChecker(env, log, tel)
			},
			types.Ngrok: func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker {
				return checker.NewNgrokChecker(env, log, tel)
			},
			types.TestTool: func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker {
				return checker.NewTestToolChecker(env, log, tel)
			},
			types.VxTestApp: func(env checker.Env, log logger.DepsLogger, tel telemetry.Telemetry) types.Checker {
				return checker.NewVxTestAppChecker(env, log, tel)
			},
		},
	}
}

// CreateChecker returns a fresh checker for t
func (r *Registry) CreateChecker(t types.DependencyType, log logger.DepsLogger, tel telemetry.Telemetry) (types.Checker, error) {
	c, ok := r.constructors[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownDependencyType, t)
	}
	return c(r.env, log, tel), nil
}
