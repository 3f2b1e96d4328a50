// Package orchestrator resolves a list of dependencies in priority order.
package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/logger"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/telemetry"
)

// CheckerFactory builds a checker for one dependency type.
type CheckerFactory interface {
	CreateChecker(t types.DependencyType, log logger.DepsLogger, tel telemetry.Telemetry) (types.Checker, error)
}

// EnsureOptions tunes EnsureDependencies.
type EnsureOptions struct {
	// FastFail stops installing once any dependency is not installed; the rest are only detected.
	FastFail bool
	// Doctor silences checker logging for diagnostic runs.
	Doctor bool
}

// Orchestrator coordinates detection -> installation across dependency types
type Orchestrator struct {
	factory   CheckerFactory
	logger    logger.DepsLogger
	telemetry telemetry.Telemetry
}

// New creates a new orchestrator
func New(factory CheckerFactory, log logger.DepsLogger, tel telemetry.Telemetry) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpDepsLogger()
	}
	if tel == nil {
		tel = telemetry.NewNoop()
	}
	return &Orchestrator{factory: factory, logger: log, telemetry: tel}
}

// EnsureDependencies resolves deps one at a time in priority order, installing
// what is missing. Every requested type gets a status, in resolution order.
func (o *Orchestrator) EnsureDependencies(ctx context.Context, deps []types.DependencyType, opts EnsureOptions) ([]types.DependencyStatus, error) {
	if len(deps) == 0 {
		return []types.DependencyStatus{}, nil
	}

	log := o.logger
	if opts.Doctor {
		log = logger.NewNoOpDepsLogger()
	}

	shouldInstall := true
	results := make([]types.DependencyStatus, 0, len(deps))
	for _, dep := range SortByPriority(deps) {
		c, err := o.factory.CreateChecker(dep, log, o.telemetry)
		if err != nil {
			return nil, err
		}

		var status *types.DependencyStatus
		if shouldInstall {
			status, err = c.Resolve(ctx)
		} else {
			status, err = c.GetInstallationInfo(ctx)
		}
		status = normalize(dep, status, err)
		results = append(results, *status)

		if opts.FastFail && !status.IsInstalled {
			shouldInstall = false
		}
	}
	return results, nil
}

// GetStatus detects every dependency without installing anything.
func (o *Orchestrator) GetStatus(ctx context.Context, deps []types.DependencyType) ([]types.DependencyStatus, error) {
	if len(deps) == 0 {
		return []types.DependencyStatus{}, nil
	}

	results := make([]types.DependencyStatus, 0, len(deps))
	for _, dep := range deps {
		c, err := o.factory.CreateChecker(dep, logger.NewNoOpDepsLogger(), o.telemetry)
		if err != nil {
			return nil, err
		}
		status, err := c.GetInstallationInfo(ctx)
		results = append(results, *normalize(dep, status, err))
	}
	return results, nil
}

// normalize guarantees a non-nil status carrying any error the checker surfaced.
func normalize(dep types.DependencyType, status *types.DependencyStatus, err error) *types.DependencyStatus {
	if status == nil {
		status = &types.DependencyStatus{Name: string(dep), Type: dep}
	}
	if err != nil && status.Error == nil {
		status.Error = types.Classify(fmt.Errorf("%s: %w", dep, err), types.DefaultHelpLink)
		status.IsInstalled = false
	}
	return status
}

// priority ranks the types that must resolve first; runtime before the SDK before
// func (which checks node compatibility) before the tunnel client.
func priority(t types.DependencyType) int {
	switch {
	case t.IsRuntime():
		return 0
	case t == types.Dotnet:
		return 1
	case t == types.FuncCoreTools:
		return 2
	case t == types.Ngrok:
		return 3
	}
	return 4
}

// SortByPriority returns deps in resolution order. Types of equal rank keep their input order.
func SortByPriority(deps []types.DependencyType) []types.DependencyType {
	sorted := make([]types.DependencyType, len(deps))
	copy(sorted, deps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priority(sorted[i]) < priority(sorted[j])
	})
	return sorted
}
