package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsedit/internal/files/dbstore"
	"github.com/vvka-141/fsedit/internal/tui"
	"github.com/vvka-141/fsedit/internal/ui"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy a local directory into the PostgreSQL backend table",
	Long: `Import walks a local directory and upserts every UTF-8 text file and
directory into the configured postgres table, creating the table if needed.
Files that are not valid UTF-8 are skipped. Existing rows with the same path
are replaced.

Importing into a table that already has entries asks you to type the table
name first. Use --force to skip the prompt, for example in CI.

Examples:
  fsedit import ./docs --backend postgres
  fsedit import ./docs --backend postgres --force
  FSEDIT_PG_TABLE=handbook fsedit import ./handbook --backend postgres`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDirectories,
	RunE:              runImport,
}

type importFlagValues struct {
	force bool
}

var importFlags importFlagValues

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importFlags.force, "force", false,
		"Replace entries of a non-empty table without the interactive prompt")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fsedit.Backend(cfg.Backend) != fsedit.BackendPostgres {
		return fmt.Errorf("import needs --backend postgres, got %q: %w", cfg.Backend, fsedit.ErrUnsupportedBackend)
	}

	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a readable directory: %w", args[0], fsedit.ErrPickerDenied)
	}

	logger := stderrLogger(cmd)
	w, err := openWorkspace(ctx, cfg, workspaceOptions{logger: logger})
	if err != nil {
		return err
	}
	defer w.Close()

	table, ok := w.provider.(*dbstore.Provider)
	if !ok {
		return fmt.Errorf("backend %s cannot import: %w", w.backend, fsedit.ErrUnsupportedBackend)
	}
	if err := approveImport(ctx, cmd, w); err != nil {
		return err
	}

	n, err := table.Seed(ctx, os.DirFS(args[0]))
	if err != nil {
		return fmt.Errorf("import %s: %w: %w", args[0], fsedit.ErrWriteFailed, err)
	}
	logger.Info("Imported %d entries into %s", n, table.Table())
	return nil
}

// approveImport asks before touching a table that already has entries.
func approveImport(ctx context.Context, cmd *cobra.Command, w *workspace) error {
	empty := true
	for _, err := range w.provider.Children(ctx, w.root) {
		if err != nil {
			return err
		}
		empty = false
		break
	}
	if empty {
		return nil
	}

	var approver fsedit.Approver
	switch {
	case importFlags.force:
		approver = ui.NewForcedApprover(cmd.ErrOrStderr())
	case tui.IsInteractive():
		approver = ui.NewInteractiveApprover(cmd.InOrStdin(), cmd.ErrOrStderr())
	default:
		return fmt.Errorf("%s already has entries, rerun with --force to replace them: %w", w.root.Name(), fsedit.ErrApprovalDenied)
	}

	approved, err := approver.RequestApproval(ctx, w.root.Name())
	if err != nil {
		return fmt.Errorf("import approval: %w: %w", fsedit.ErrApprovalDenied, err)
	}
	if !approved {
		return fmt.Errorf("import into %s: %w", w.root.Name(), fsedit.ErrApprovalDenied)
	}
	return nil
}
