package util

import (
	"bytes"
	"runtime/debug"
	"testing"
)

func TestBuildInfo_Write(t *testing.T) {
	tests := []struct {
		name string
		in   BuildInfo
		want string
	}{
		{
			name: "all set",
			in:   BuildInfo{Version: "v1.2.0", Date: "2026-10-18", Commit: "abc123"},
			want: "Build version: v1.2.0\nBuild date: 2026-10-18\nBuild commit: abc123\n",
		},
		{
			name: "unset",
			in:   BuildInfo{},
			want: "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.in.Write(&buf); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if buf.String() != tt.want {
				t.Fatalf("got %q want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestBuildInfo_WithModuleVersion(t *testing.T) {
	read := func(v string) func() (*debug.BuildInfo, bool) {
		return func() (*debug.BuildInfo, bool) {
			return &debug.BuildInfo{Main: debug.Module{Version: v}}, true
		}
	}

	if got := (BuildInfo{}).withModuleVersion(read("v0.3.1")); got.Version != "v0.3.1" {
		t.Fatalf("version=%q want module version", got.Version)
	}
	if got := (BuildInfo{}).withModuleVersion(read("(devel)")); got.Version != "" {
		t.Fatalf("devel builds must stay unset, got %q", got.Version)
	}
	if got := (BuildInfo{Version: "ldflags"}).withModuleVersion(read("v0.3.1")); got.Version != "ldflags" {
		t.Fatalf("ldflags version must win, got %q", got.Version)
	}
	noInfo := func() (*debug.BuildInfo, bool) { return nil, false }
	if got := (BuildInfo{}).withModuleVersion(noInfo); got.Version != "" {
		t.Fatalf("version=%q want empty", got.Version)
	}
}
