package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/fsedit/internal/files/filesystem"
	"github.com/vvka-141/fsedit/internal/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the directory tree",
	Long: `Tree refreshes the tree once and prints it, directories first.

Subdirectories that cannot be listed are shown empty; only a failure to list
the root itself is an error.

Arguments:
  path    Directory (os, memory), key prefix (s3) or table name (postgres).
          Defaults to the configured root, or the current directory.

Examples:
  # Text tree of the current directory
  fsedit tree

  # Only files that can be opened, as YAML
  fsedit tree ./docs --editable-only --format yaml

  # JSON listing of a PostgreSQL-backed workspace
  fsedit tree --backend postgres --format json`,
	Args:              OptionalPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runTree,
}

type treeFlagValues struct {
	format       string
	editableOnly bool
}

var treeFlags treeFlagValues

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().StringVarP(&treeFlags.format, "format", "f", "text",
		"Output format: text|yaml|json")
	treeCmd.Flags().BoolVar(&treeFlags.editableOnly, "editable-only", false,
		"Show only editable files and the directories containing them")

	_ = treeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runTree(cmd *cobra.Command, args []string) error {
	switch treeFlags.format {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("invalid argument %q for \"--format\": must be one of text, yaml, json", treeFlags.format)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var target string
	if len(args) > 0 {
		target = args[0]
	}
	logger := stderrLogger(cmd)
	w, err := openWorkspace(ctx, cfg, workspaceOptions{
		target: target,
		picker: filesystem.StaticPicker("."),
		logger: logger,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	e := newEngines(w.provider, cfg, logger)
	entries, err := e.engine.Refresh(ctx, w.root)
	if err != nil {
		return err
	}

	exts := cfg.ExtensionSet()
	if treeFlags.editableOnly {
		entries = tree.Prune(entries, exts.Editable)
	}
	return printTree(cmd.OutOrStdout(), treeFlags.format, w.root.Name(), entries, exts)
}

func printTree(out io.Writer, format, rootName string, entries []*tree.Entry, exts tree.ExtensionSet) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(tree.Views(entries, exts)); err != nil {
			return fmt.Errorf("failed to encode tree: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tree.Views(entries, exts)); err != nil {
			return fmt.Errorf("failed to encode tree: %w", err)
		}
		return nil
	}

	fmt.Fprintf(out, "%s/\n", rootName)
	if err := tree.Render(out, entries); err != nil {
		return err
	}
	dirs, files := tree.Count(entries)
	fmt.Fprintf(out, "\n%d directories, %d files\n", dirs, files)
	return nil
}
