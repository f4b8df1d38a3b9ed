package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for embedleak.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embedleak",
		Short: "Find pages that leak raw embed markup",
		Long: `embedleak audits a site for pages whose output shows raw embed markup,
for example a media token like [[{"fid":"123","view_mode":"full"}]] that the
CMS failed to render.

Give it one confirmed example (the seed). It derives a tiered set of
detection patterns that tolerate quote and entity variants, scans a corpus
of pages, and groups the affected pages by URL shape into priorities.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewSynthesizeCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewTriageCmd())
	cmd.AddCommand(NewDiagnoseCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
