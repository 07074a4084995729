package cli

import (
	"strings"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	expected := []string{
		"analyze", "context", "task", "event", "prioritize", "schedule",
		"workload", "deadline", "insights", "block", "metrics", "dashboard", "mcp", "version",
	}
	subs := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		subs[cmd.Name()] = true
	}
	for _, name := range expected {
		if !subs[name] {
			t.Errorf("expected subcommand %q on root, but it was not registered", name)
		}
	}
}

func TestTaskCmd_Subcommands(t *testing.T) {
	expected := []string{"add", "list", "show", "status", "remove"}
	subs := make(map[string]bool)
	for _, cmd := range taskCmd.Commands() {
		subs[cmd.Name()] = true
	}
	for _, name := range expected {
		if !subs[name] {
			t.Errorf("expected subcommand %q on 'task', but it was not registered", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	origV, origC, origD := appVersion, appCommit, appDate
	defer SetVersionInfo(origV, origC, origD)

	SetVersionInfo("1.2.3", "abc123", "2025-01-06")
	out := captureStdout(t, func() { versionCmd.Run(versionCmd, nil) })

	for _, want := range []string{"aip 1.2.3", "abc123", "2025-01-06"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output %q missing %q", out, want)
		}
	}
}
