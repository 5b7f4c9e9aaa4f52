package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	Version = "1.2.3-test"
	GitCommit = "abc123"
	BuildDate = "2026-10-19"

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	for _, want := range []string{
		"Callisto 1.2.3-test",
		"Git Commit: abc123",
		"Build Date: 2026-10-19",
		"Go Version: " + runtime.Version(),
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	want := map[string]bool{"serve": false, "validate": false, "keys": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}

	if f := rootCmd.PersistentFlags().Lookup("config"); f == nil || f.Shorthand != "c" {
		t.Error("expected persistent --config/-c flag")
	}
}
