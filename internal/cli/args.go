package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireDirectoryAndFile validates that exactly a <path> and a <file> argument are provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireDirectoryAndFile(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf(`missing required argument: <path> <file>

Usage: %s

Example:
  %s ./notes README.md`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 2 {
		return fmt.Errorf("accepts 2 arg(s), received %d", len(args))
	}
	return nil
}

// OptionalPath validates that at most one [path] argument is provided.
func OptionalPath(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("accepts at most 1 arg(s), received %d", len(args))
	}
	return nil
}
