// Package util holds helpers shared by the agent and collector binaries.
package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

// BuildInfo is stamped into the binaries with -ldflags "-X main.buildVersion=...".
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

// na returns "N/A" for an unset value.
func na(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// withModuleVersion fills an unset version from the module build info, as `go install` records it.
func (b BuildInfo) withModuleVersion(read func() (*debug.BuildInfo, bool)) BuildInfo {
	if b.Version != "" {
		return b
	}
	if bi, ok := read(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		b.Version = bi.Main.Version
	}
	return b
}

// Write prints the build version, date and commit, one per line.
func (b BuildInfo) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Build version: %s\nBuild date: %s\nBuild commit: %s\n",
		na(b.Version), na(b.Date), na(b.Commit))
	return err
}

// PrintBuildInfo prints the build information to stdout.
func PrintBuildInfo(buildVersion, buildDate, buildCommit string) {
	b := BuildInfo{Version: buildVersion, Date: buildDate, Commit: buildCommit}
	_ = b.withModuleVersion(debug.ReadBuildInfo).Write(os.Stdout)
}
