// Package version carries devlog build metadata.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build metadata reported by `devlog version --json` and
// GET /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Get snapshots the current build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
}

func Full() string {
	return Version + " (" + Commit + ") " + Date
}

func Short() string {
	return Version
}

// UserAgent identifies devlog in the server banner and startup log.
func UserAgent() string {
	return "devlog/" + Version
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	backfillFromBuildInfo(info)
}

// backfillFromBuildInfo fills Version, Commit, and Date from module build
// info when they still hold their ldflags defaults. `go install` builds get
// real values this way; ldflags always win.
func backfillFromBuildInfo(info *debug.BuildInfo) {
	if info == nil {
		return
	}

	// Untagged builds report "(devel)"; keep "dev" for those.
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" && s.Value != "" {
				Commit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		}
	}
}
