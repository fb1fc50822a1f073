package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.0",
		GitCommit: "0123456789abcdef",
		BuildTime: "unknown",
		GoVersion: "go1.25.0",
		Platform:  "linux",
		Arch:      "amd64",
		Modified:  true,
	}
	want := "nescore 1.2.0 (commit 0123456, modified) with go1.25.0 for linux/amd64"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.GoVersion != runtime.Version() {
		t.Errorf("Expected %s, got %s", runtime.Version(), info.GoVersion)
	}
	if !strings.HasPrefix(GetVersion(), "dev") {
		t.Errorf("Expected a dev version, got %q", GetVersion())
	}
}
