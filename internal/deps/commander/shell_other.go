//go:build !windows

package commander

import "os/exec"

// setCmdLine is a no-op; cmd.exe only runs on Windows.
func setCmdLine(*exec.Cmd, string) {}
