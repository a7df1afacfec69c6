package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsedit/internal/config"
	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/tui"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Browse a directory and edit its text files",
	Long: `Browse opens an interactive two-pane editor: the directory tree on the left,
the selected file on the right.

Only files with an editable extension can be opened. Edits stay in the buffer
until you save with ctrl+s; selecting another file discards unsaved changes.

Arguments:
  path    Directory to browse (os and memory backends), key prefix (s3)
          or table name (postgres). Without a path the configured root is used;
          if none is configured you are asked for a backend and a folder.

Keys:
  ↑/↓ or k/j   move          enter   open file / toggle folder
  tab          switch pane   ctrl+s  save
  ctrl+r       refresh       ctrl+o  open another folder (os backend)
  q            quit (twice with unsaved changes), ctrl+c quits immediately

Examples:
  # Browse the current directory
  fsedit browse .

  # Try it on the bundled sample workspace
  fsedit browse --demo

  # Browse an S3 prefix configured in fsedit.yaml
  fsedit browse --backend s3 notes/

  # Also accept YAML files and keep a diagnostics log
  fsedit browse ./project --ext .yaml --ext .md --log-file fsedit.log`,
	Args:              OptionalPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runBrowse,
}

type browseFlagValues struct {
	demo bool
}

var browseFlags browseFlagValues

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().BoolVar(&browseFlags.demo, "demo", false,
		"Browse the bundled sample workspace in memory (saves never reach the disk)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !tui.IsInteractive() {
		return fmt.Errorf("browse requires an interactive terminal\n" +
			"For non-interactive use, see 'fsedit tree', 'fsedit cat' and 'fsedit write'")
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
	if target == "" && cfg.Root == "" && !browseFlags.demo && globalFlags.backend == "" {
		backend, err := tui.ChooseBackend(ctx, fsedit.Backend(cfg.Backend))
		if err != nil {
			return err
		}
		cfg.Backend = string(backend)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	recorder := logging.NewRecordingLogger(logging.DefaultRecordingCapacity)
	logger, closeLog, err := browserLogger(cfg, recorder, getVerboseFlag(cmd))
	if err != nil {
		return err
	}
	defer closeLog()

	w, err := openWorkspace(ctx, cfg, workspaceOptions{
		target: target,
		picker: tui.Picker{},
		demo:   browseFlags.demo,
		logger: logger,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	e := newEngines(w.provider, cfg, logger)
	return tui.Run(ctx, w.root, tui.Deps{
		Store:    e.store,
		Engine:   e.engine,
		Editor:   e.editor,
		Recorder: recorder,
		Open:     w.open,
		Title:    w.Title(),
	})
}

// browserLogger feeds the status line and, when a log file is configured,
// the file. Nothing is written to the terminal while the alt-screen is up.
func browserLogger(cfg *config.Config, recorder *logging.RecordingLogger, verbose bool) (fsedit.Logger, func(), error) {
	if cfg.LogFile == "" {
		return recorder, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w: %w", fsedit.ErrInvalidConfig, err)
	}
	file := logging.NewConsoleLogger(verbose,
		logging.WithWriter(f),
		logging.WithComponent("browse"),
		logging.WithNoColor(),
	)
	return logging.Tee(recorder, file), func() { f.Close() }, nil
}
