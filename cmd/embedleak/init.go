package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/config"
)

//go:embed templates/embedleak.yaml
var configTemplate embed.FS

const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an embedleak configuration file",
		Long: `Init writes a commented .embedleak configuration file holding the built-in
defaults: synthesis parameters, confidence thresholds, scan and fetch
settings, and the triage category rules.

Edit the category rules to match the URL layout of your site.

Examples:
  # Create .embedleak in the current directory
  embedleak init

  # Create the file somewhere else
  embedleak init -o ~/.config/embedleak/config.yaml

  # Overwrite an existing file
  embedleak init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName, "Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/embedleak.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}
	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nAdjust the category rules to your site's URL layout before scanning.")
	return nil
}
