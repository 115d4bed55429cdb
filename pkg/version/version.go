package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X highlights-cli/pkg/version.Version=...". Builds made
// with go install fall back to the VCS stamp embedded by the toolchain.
var (
	Version   = "v0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			applyVCS(&info, bi.Settings)
		}
	}
	return info
}

func applyVCS(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 12 {
				info.GitCommit = s.Value[:12]
			} else {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && info.GitCommit != "unknown" {
				info.GitCommit += "-dirty"
			}
		}
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("highlights-cli %s (commit: %s, built: %s, go: %s, platform: %s)",
		b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform)
}

// UserAgent identifies this build to the search service.
func (b BuildInfo) UserAgent() string {
	return fmt.Sprintf("highlights-cli/%s (%s)", b.Version, b.Platform)
}
