// Package misc keeps build metadata helpers used across the program.
package misc

import (
	"runtime/debug"
)

// Set at build time via -ldflags "-X pbc/misc.version=... -X pbc/misc.gitHash=...".
var (
	appName = "pbc"
	version = "development"
	gitHash = ""
)

// GetAppName returns program name used in file names and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns program version set at build time or module version when
// installed with "go install".
func GetVersion() string {
	if version != "development" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns vcs revision recorded at build time when available.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}
