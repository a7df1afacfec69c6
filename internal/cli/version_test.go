package cli

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuild(t *testing.T, v, c, d string, info *debug.BuildInfo) {
	t.Helper()
	origV, origC, origD, origRead := version, commit, date, readBuildInfo
	t.Cleanup(func() { version, commit, date, readBuildInfo = origV, origC, origD, origRead })

	version, commit, date = v, c, d
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
}

func TestResolveVersionInfo(t *testing.T) {
	stamped := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		},
	}
	dirty := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "fedcba9876543210"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name    string
		ldflags [3]string
		info    *debug.BuildInfo
		want    versionInfo
	}{
		{"ldflags win over build info", [3]string{"1.2.3", "abc1234", "2026-01-01"}, stamped, versionInfo{"1.2.3", "abc1234", "2026-01-01"}},
		{"go install build", [3]string{"dev", "unknown", "unknown"}, stamped, versionInfo{"v0.4.1", "0123456", "2026-03-01T10:00:00Z"}},
		{"local build with changes", [3]string{"dev", "unknown", "unknown"}, dirty, versionInfo{"dev", "fedcba9-dirty", "unknown"}},
		{"no build info", [3]string{"dev", "unknown", "unknown"}, nil, versionInfo{"dev", "unknown", "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.ldflags[0], tt.ldflags[1], tt.ldflags[2], tt.info)
			if got := resolveVersionInfo(); got != tt.want {
				t.Errorf("resolveVersionInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrintVersionInfo_SeparatesStreams(t *testing.T) {
	withBuild(t, "1.2.3", "abc1234", "2026-01-01", nil)

	var out, banner strings.Builder
	printVersionInfo(&out, &banner)

	line := out.String()
	if !strings.HasPrefix(line, "fsedit 1.2.3 (abc1234, 2026-01-01) ") || strings.Count(line, "\n") != 1 {
		t.Errorf("stdout = %q, want a single version line", line)
	}
	if strings.Contains(banner.String(), "1.2.3") || !strings.Contains(banner.String(), "Repository:") {
		t.Errorf("banner = %q", banner.String())
	}
}
