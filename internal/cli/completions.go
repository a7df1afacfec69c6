package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// backends contains the storage backends for shell completion.
var backends = []string{
	string(fsedit.BackendOS),
	string(fsedit.BackendMemory),
	string(fsedit.BackendS3),
	string(fsedit.BackendPostgres),
}

// treeFormats contains the output formats of the tree command.
var treeFormats = []string{"text", "yaml", "json"}

func completeFrom(values []string, toComplete string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches
}

// completeBackends provides shell completion for the --backend flag.
func completeBackends(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(backends, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeFormats provides shell completion for the --format flag.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(treeFormats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeExtensions offers the default editable extensions.
func completeExtensions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(fsedit.DefaultExtensions, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// completeDirectoryThenFile completes the <path> argument as a directory and
// leaves the <file> argument to the shell.
func completeDirectoryThenFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return nil, cobra.ShellCompDirectiveFilterDirs
	case 1:
		return nil, cobra.ShellCompDirectiveDefault
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
