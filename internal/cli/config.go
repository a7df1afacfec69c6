package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsedit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create fsedit.yaml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Show prints the configuration after applying fsedit.yaml, FSEDIT_* environment
variables and flags, as YAML. Passwords and secret keys are masked.

Examples:
  fsedit config show
  FSEDIT_BACKEND=s3 FSEDIT_S3_BUCKET=notes fsedit config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default fsedit.yaml",
	Long: `Init writes fsedit.yaml with the default settings into the given directory
(the current directory by default). An existing file is never overwritten.

Examples:
  fsedit config init
  fsedit config init ./project`,
	Args:              OptionalPath,
	ValidArgsFunction: completeDirectories,
	RunE:              runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.Redacted().Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	if _, err := config.Load(targetDir); !errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("%s already exists in %s", config.ConfigFileName, targetDir)
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	configPath := filepath.Join(targetDir, config.ConfigFileName)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Configuration saved to %s\n", configPath)
	return nil
}
