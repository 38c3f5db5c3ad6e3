/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import "runtime"

// Version information set by build flags
var (
	// Version is the semantic version of recordstore
	Version = "0.1.0"

	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"

	// BuildDate is the build date (set by build flags)
	BuildDate = "unknown"
)

// VersionInfo contains version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"git_commit"`
	BuildDate string `json:"buildDate" yaml:"build_date"`
	GoVersion string `json:"goVersion" yaml:"go_version"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
