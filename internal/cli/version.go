package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersionInfo(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	version, commit, date string
}

// resolveVersionInfo prefers ldflags values. A plain `go install` build has
// none, so the module version and VCS stamp from the build info fill in.
func resolveVersionInfo() versionInfo {
	vi := versionInfo{version: version, commit: commit, date: date}
	if vi.version != "dev" {
		return vi
	}

	info, ok := readBuildInfo()
	if !ok {
		return vi
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		vi.version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if vi.commit == "unknown" && len(s.Value) >= 7 {
				vi.commit = s.Value[:7]
			}
		case "vcs.time":
			if vi.date == "unknown" {
				vi.date = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && vi.commit != "unknown" {
				vi.commit += "-dirty"
			}
		}
	}
	return vi
}

func (vi versionInfo) String() string {
	return fmt.Sprintf("fsedit %s (%s, %s) %s/%s", vi.version, vi.commit, vi.date, runtime.GOOS, runtime.GOARCH)
}

// printVersionInfo writes the one-line version to out, for scripts, and the
// banner to banner.
func printVersionInfo(out, banner io.Writer) {
	fmt.Fprintln(out, resolveVersionInfo())
	fmt.Fprintln(banner, "Capability-based file browser and editor")
	fmt.Fprintln(banner)
	fmt.Fprintln(banner, "Repository: https://github.com/vvka-141/fsedit")
}

func printVersion() { printVersionInfo(os.Stdout, os.Stderr) }
