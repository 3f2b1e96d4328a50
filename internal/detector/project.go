// Package detector infers which dependencies a Teams project needs from its
// files and source languages.
package detector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/orchestrator"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
)

// Project files that drive detection.
const (
	PackageJSON    = "package.json"
	HostJSON       = "host.json"
	YoRC           = ".yo-rc.json"
	LocalYAML      = "teamsapp.local.yml"
	TestToolYAML   = "teamsapp.testtool.yml"
	DevToolInstall = "devTool/install"
)

// Finding is one inferred dependency and why it was inferred.
type Finding struct {
	Type   types.DependencyType `json:"type" yaml:"type"`
	Reason string               `json:"reason" yaml:"reason"`
}

// Result is the outcome of scanning a project.
type Result struct {
	Root      string            `json:"root" yaml:"root"`
	Languages map[string]string `json:"languages" yaml:"languages"`
	Findings  []Finding         `json:"findings" yaml:"findings"`
}

// Types returns the inferred dependency types in resolution order.
func (r *Result) Types() []types.DependencyType {
	out := make([]types.DependencyType, 0, len(r.Findings))
	for _, f := range r.Findings {
		out = append(out, f.Type)
	}
	return out
}

// Rule inspects a project and reports the dependencies it implies.
type Rule interface {
	// Name returns the rule name
	Name() string
	Detect(ctx context.Context, p *Project) ([]Finding, error)
}

// Project is the scanned view of a project directory shared by all rules.
type Project struct {
	Root      string
	Languages map[string]string
}

// Exists reports whether rel exists under the project root.
func (p *Project) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(p.Root, rel))
	return err == nil
}

// Read returns the content of rel, or nil when it cannot be read.
func (p *Project) Read(rel string) []byte {
	data, err := os.ReadFile(filepath.Join(p.Root, rel))
	if err != nil {
		return nil
	}
	return data
}

// HasLanguage reports whether any directory's primary language is lang.
func (p *Project) HasLanguage(lang string) bool {
	for _, l := range p.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in detection rules.
func DefaultRules() []Rule {
	return []Rule{
		nodeRule{},
		dotnetRule{},
		devToolRule{},
		tunnelRule{},
	}
}

// Detect scans root and returns the dependencies it needs. Each type is
// reported once, by the first rule that finds it.
func Detect(ctx context.Context, root string, rules []Rule) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}
	langs, err := DetectLanguages(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to detect languages: %w", err)
	}

	p := &Project{Root: abs, Languages: langs}
	seen := make(map[types.DependencyType]bool)
	var findings []Finding
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := rule.Detect(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		for _, f := range found {
			if seen[f.Type] {
				continue
			}
			seen[f.Type] = true
			findings = append(findings, f)
		}
	}

	order := make([]types.DependencyType, 0, len(findings))
	byType := make(map[types.DependencyType]Finding, len(findings))
	for _, f := range findings {
		order = append(order, f.Type)
		byType[f.Type] = f
	}
	sorted := make([]Finding, 0, len(findings))
	for _, t := range orchestrator.SortByPriority(order) {
		sorted = append(sorted, byType[t])
	}

	return &Result{Root: abs, Languages: langs, Findings: sorted}, nil
}

// nodeRule picks the runtime profile matching the project kind.
type nodeRule struct{}

func (nodeRule) Name() string { return "node" }

func (nodeRule) Detect(_ context.Context, p *Project) ([]Finding, error) {
	switch {
	case strings.Contains(string(p.Read(YoRC)), "@microsoft/generator-sharepoint"):
		return []Finding{{types.SPFxNode, "SharePoint Framework generator config in " + YoRC}}, nil
	case p.Exists(HostJSON) && p.Exists(PackageJSON):
		return []Finding{{types.FunctionNode, "Azure Functions project with " + PackageJSON}}, nil
	case p.Exists(PackageJSON):
		return []Finding{{types.AzureNode, PackageJSON + " found"}}, nil
	case p.HasLanguage("JavaScript") || p.HasLanguage("TypeScript"):
		return []Finding{{types.AzureNode, "JavaScript or TypeScript sources"}}, nil
	}
	return nil, nil
}

// dotnetRule looks for C# projects and sources.
type dotnetRule struct{}

func (dotnetRule) Name() string { return "dotnet" }

func (dotnetRule) Detect(_ context.Context, p *Project) ([]Finding, error) {
	matches, err := filepath.Glob(filepath.Join(p.Root, "*.csproj"))
	if err != nil {
		return nil, err
	}
	var out []Finding
	if len(matches) > 0 {
		out = append(out, Finding{types.Dotnet, filepath.Base(matches[0]) + " found"})
	} else if p.HasLanguage("C#") {
		out = append(out, Finding{types.Dotnet, "C# sources"})
	}
	if p.Exists(HostJSON) {
		out = append(out, Finding{types.FuncCoreTools, HostJSON + " found"})
	}
	return out, nil
}

type lifecycleAction struct {
	Uses string                 `yaml:"uses"`
	With map[string]interface{} `yaml:"with"`
}

type lifecycleFile struct {
	Provision []lifecycleAction `yaml:"provision"`
	Deploy    []lifecycleAction `yaml:"deploy"`
}

var devToolKeys = map[string]types.DependencyType{
	"func":      types.FuncCoreTools,
	"dotnet":    types.Dotnet,
	"testTool":  types.TestTool,
	"vxTestApp": types.VxTestApp,
}

// devToolRule reads the devTool/install steps of the local lifecycle files.
type devToolRule struct{}

func (devToolRule) Name() string { return "devtool" }

func (devToolRule) Detect(_ context.Context, p *Project) ([]Finding, error) {
	var out []Finding
	for _, name := range []string{LocalYAML, TestToolYAML} {
		data := p.Read(name)
		if data == nil {
			continue
		}
		var lf lifecycleFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for _, action := range append(lf.Provision, lf.Deploy...) {
			if action.Uses != DevToolInstall {
				continue
			}
			keys := make([]string, 0, len(action.With))
			for k := range action.With {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if t, ok := devToolKeys[k]; ok && enabled(action.With[k]) {
					out = append(out, Finding{t, fmt.Sprintf("%s: %s in %s", DevToolInstall, k, name)})
				}
			}
		}
	}
	return out, nil
}

// enabled treats "false" as off and any other value, such as an options map, as on.
func enabled(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return v != nil
}

// tunnelRule detects bot projects debugged through a local tunnel.
type tunnelRule struct{}

func (tunnelRule) Name() string { return "tunnel" }

func (tunnelRule) Detect(_ context.Context, p *Project) ([]Finding, error) {
	tasks := string(p.Read(filepath.Join(".vscode", "tasks.json")))
	if strings.Contains(tasks, "ngrok") {
		return []Finding{{types.Ngrok, "ngrok task in .vscode/tasks.json"}}, nil
	}
	return nil, nil
}
