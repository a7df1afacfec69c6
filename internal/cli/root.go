package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fsedit",
	Short: "Browse and edit text files through a capability-based provider",
	Long: `fsedit browses a directory tree and edits text files in place.

Access goes through a provider that grants a single directory: the local
filesystem, an in-memory workspace, an S3 bucket prefix or a PostgreSQL table.
Only files with an allow-listed extension can be opened; the default list is
.json, .md, .rs and .js.

Configuration is layered: defaults, then fsedit.yaml, then FSEDIT_* environment
variables (a .env file in the working directory is loaded first), then flags.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Backend connection failed
  12 - Directory selection or confirmation cancelled or denied
  13 - Root directory could not be listed
  14 - File could not be read (missing, not editable, unreadable)
  15 - File could not be written`,
	SilenceUsage: true,
}

// globalFlagValues holds the persistent flags shared by every command.
type globalFlagValues struct {
	verbose    bool
	configFile string
	extensions []string
	maxDepth   int
	logFile    string
	backend    string
}

var globalFlags globalFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersion()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for fsedit")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.verbose, "verbose", "v", false,
		"Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Path to a config file (default: ./fsedit.yaml when present)")
	rootCmd.PersistentFlags().StringArrayVar(&globalFlags.extensions, "ext", nil,
		"Editable file extension, can be repeated (replaces the configured list)\n"+
			"Example: --ext .md --ext .yaml")
	rootCmd.PersistentFlags().IntVar(&globalFlags.maxDepth, "max-depth", -1,
		"Maximum traversal depth below the root, 0 lists only the root\n"+
			"(-1 keeps the configured value, 64 unless changed)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFile, "log-file", "",
		"Write diagnostics to this file while the interactive browser is running")
	rootCmd.PersistentFlags().StringVar(&globalFlags.backend, "backend", "",
		"Storage backend: os|memory|s3|postgres (default: os, or $FSEDIT_BACKEND)")

	_ = rootCmd.RegisterFlagCompletionFunc("backend", completeBackends)
	_ = rootCmd.RegisterFlagCompletionFunc("ext", completeExtensions)
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
