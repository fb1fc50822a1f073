// Package version provides build information for nescore
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified"`
}

// GetBuildInfo returns build information, filling in VCS details recorded
// by the Go toolchain when they were not set with -ldflags
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "unknown" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if info.BuildTime == "unknown" {
					info.BuildTime = setting.Value
				}
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}
	return info
}

// GetVersion returns a short version string such as "dev-1a2b3c4"
func GetVersion() string {
	info := GetBuildInfo()
	if info.Version == "dev" && len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
		return "dev-" + info.GitCommit[:7]
	}
	return info.Version
}

// String formats the build information on one line
func (b BuildInfo) String() string {
	s := "nescore " + b.Version
	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += " (commit " + commit
		if b.Modified {
			s += ", modified"
		}
		s += ")"
	}
	if b.BuildTime != "unknown" {
		s += " built " + b.BuildTime
	}
	return s + fmt.Sprintf(" with %s for %s/%s", b.GoVersion, b.Platform, b.Arch)
}

// PrintBuildInfo prints the build information
func PrintBuildInfo() {
	fmt.Println(GetBuildInfo())
}
