package cli

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsedit/internal/config"
	"github.com/vvka-141/fsedit/internal/tree"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

var catCmd = &cobra.Command{
	Use:   "cat <path> <file>",
	Short: "Print an editable file",
	Long: `Cat opens a file exactly as the browser does and prints its content.

Arguments:
  path    Directory (os, memory), key prefix (s3) or table name (postgres)
  file    Slash-separated path of the file below it

Examples:
  fsedit cat ./notes README.md
  fsedit cat --backend s3 notes/ drafts/todo.md`,
	Args:              RequireDirectoryAndFile,
	ValidArgsFunction: completeDirectoryThenFile,
	RunE:              runCat,
}

var writeCmd = &cobra.Command{
	Use:   "write <path> <file>",
	Short: "Replace an editable file with standard input",
	Long: `Write reads the new content from standard input and saves it through the
same select, edit and apply steps as the browser. The replacement is atomic:
if the write fails the previous content is left untouched.

Nothing is written when the content is unchanged.

Arguments:
  path    Directory (os, memory), key prefix (s3) or table name (postgres)
  file    Slash-separated path of an existing file below it

Examples:
  echo '{"debug": true}' | fsedit write ./app config.json
  fsedit write --backend postgres docs guide.md < guide.md`,
	Args:              RequireDirectoryAndFile,
	ValidArgsFunction: completeDirectoryThenFile,
	RunE:              runWrite,
}

func init() {
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(writeCmd)
}

// openedFile is a workspace with one file loaded into the editor session.
type openedFile struct {
	ws      *workspace
	engines engines
	path    string
}

// openFile refreshes the workspace and selects rel in the editor session.
func openFile(ctx context.Context, cmd *cobra.Command, cfg *config.Config, target, rel string) (*openedFile, error) {
	logger := stderrLogger(cmd)
	w, err := openWorkspace(ctx, cfg, workspaceOptions{target: target, logger: logger})
	if err != nil {
		return nil, err
	}

	e := newEngines(w.provider, cfg, logger)
	entries, err := e.engine.Refresh(ctx, w.root)
	if err != nil {
		w.Close()
		return nil, err
	}

	rel = strings.Trim(path.Clean("/"+rel), "/")
	entry := tree.Find(entries, rel)
	switch {
	case entry == nil:
		err = fmt.Errorf("%s: %w", rel, fsedit.ErrNotFound)
	case !e.editor.Editable(entry):
		err = fmt.Errorf("%s (allowed: %s): %w", rel, e.editor.Extensions(), fsedit.ErrNotEditable)
	default:
		err = e.editor.Select(ctx, entry, rel)
	}
	if err != nil {
		w.Close()
		return nil, err
	}
	return &openedFile{ws: w, engines: e, path: rel}, nil
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := openFile(ctx, cmd, cfg, args[0], args[1])
	if err != nil {
		return err
	}
	defer f.ws.Close()

	_, err = io.WriteString(cmd.OutOrStdout(), f.engines.editor.Session().Buffer)
	return err
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read standard input: %w", err)
	}

	f, err := openFile(ctx, cmd, cfg, args[0], args[1])
	if err != nil {
		return err
	}
	defer f.ws.Close()

	ctrl := f.engines.editor
	if ctrl.Session().Buffer == string(content) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s is unchanged\n", f.path)
		return nil
	}
	ctrl.Edit(string(content))
	if err := ctrl.Apply(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", f.path, len(content))
	return nil
}
