package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
	"github.com/OfficeDev/teams-toolkit-sub010/internal/detector"
)

type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
	dim   lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{title: plain, ok: plain, fail: plain, dim: plain}
	}
	return palette{
		title: lipgloss.NewStyle().Bold(true),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// RenderStatuses returns the human-readable report for a set of dependency statuses.
func RenderStatuses(statuses []types.DependencyStatus, color bool) string {
	p := newPalette(color)
	var b strings.Builder

	b.WriteString(p.title.Render("🔧 Dependency Status"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 20))
	b.WriteString("\n\n")

	if len(statuses) == 0 {
		b.WriteString("No dependencies requested.\n")
		return b.String()
	}

	failed := 0
	for _, s := range statuses {
		if s.IsInstalled && s.Error == nil {
			fmt.Fprintf(&b, "%s %s\n", p.ok.Render("✓"), s.Name)
		} else {
			failed++
			fmt.Fprintf(&b, "%s %s\n", p.fail.Render("✗"), s.Name)
		}
		if s.Command != "" {
			fmt.Fprintf(&b, "    command: %s\n", s.Command)
		}
		if s.Details.InstallVersion != "" {
			fmt.Fprintf(&b, "    version: %s\n", s.Details.InstallVersion)
		}
		if len(s.Details.SupportedVersions) > 0 {
			fmt.Fprintf(&b, "    %s\n", p.dim.Render("supported: "+strings.Join(s.Details.SupportedVersions, ", ")))
		}
		for _, dir := range s.Details.BinFolders {
			fmt.Fprintf(&b, "    %s\n", p.dim.Render("bin: "+dir))
		}
		if s.Error != nil {
			fmt.Fprintf(&b, "    %s\n", p.fail.Render("error: "+s.Error.Message))
			if s.Error.HelpLink != "" {
				fmt.Fprintf(&b, "    help: %s\n", s.Error.HelpLink)
			}
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%d of %d dependencies ready\n", len(statuses)-failed, len(statuses))
	return b.String()
}

// RenderDepsInfo lists what each checker supports.
func RenderDepsInfo(infos []types.DependencyInfo, color bool) string {
	p := newPalette(color)
	var b strings.Builder
	b.WriteString(p.title.Render("📦 Supported Dependencies"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 24))
	b.WriteString("\n\n")

	for _, info := range infos {
		fmt.Fprintf(&b, "  • %s (%s)\n", info.Name, info.Type)
		if info.InstallVersion != "" {
			fmt.Fprintf(&b, "      installs: %s\n", info.InstallVersion)
		}
		if len(info.SupportedVersions) > 0 {
			fmt.Fprintf(&b, "      supported: %s\n", strings.Join(info.SupportedVersions, ", "))
		}
		linux := "no"
		if info.IsLinuxSupported {
			linux = "yes"
		}
		fmt.Fprintf(&b, "      %s\n", p.dim.Render("linux: "+linux))
	}
	return b.String()
}

// RenderDetection summarizes the dependencies inferred for a project.
func RenderDetection(res *detector.Result, color bool) string {
	if res == nil {
		return ""
	}
	p := newPalette(color)
	var b strings.Builder
	b.WriteString(p.title.Render("🔍 Project Dependencies"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 22))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "📂 Project Path: %s\n\n", res.Root)

	if len(res.Findings) == 0 {
		b.WriteString("No dependencies detected.\n")
		return b.String()
	}
	for _, f := range res.Findings {
		fmt.Fprintf(&b, "  • %s %s\n", f.Type, p.dim.Render("("+f.Reason+")"))
	}
	return b.String()
}
