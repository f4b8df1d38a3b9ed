package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/config"
	"github.com/nao1215/embedleak/internal/database"
)

// errNewlyAffected is returned by compare --fail-on-new when the target run
// has pages the base run did not.
var errNewlyAffected = errors.New("newly affected pages found")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [base-run target-run]",
		Short: "Compare two recorded scan runs",
		Long: `Compare shows how the affected pages changed between two runs stored in
the history database: pages newly affected, pages resolved, and the change
in affected pages per priority.

Without arguments the two most recent runs are compared.

Examples:
  # What changed since the previous scan
  embedleak compare

  # List recorded runs
  embedleak compare --list

  # Compare two specific runs and fail if anything regressed
  embedleak compare 3f1c... 9a2e... --fail-on-new`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 run IDs, received %d", len(args))
			}
			return nil
		},
		RunE: runCompareCmd,
	}

	cmd.Flags().Bool("list", false, "List recorded runs instead of comparing")
	cmd.Flags().Int("limit", 20, "Number of runs shown by --list (0 shows all)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.Flags().Bool("fail-on-new", false, "Exit with an error when pages are newly affected")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")
	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	list, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	failOnNew, err := flags.GetBool("fail-on-new")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	logger := setupLogger(getVerboseFlag(cmd))

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Debug("database opened", "path", db.Path())

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if list {
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if asJSON {
			return encodeJSON(out, runs)
		}
		return writeRunList(out, runs)
	}

	var diff *database.RunDiff
	if len(args) == 2 {
		diff, err = db.Compare(ctx, args[0], args[1])
	} else {
		diff, err = db.CompareLatest(ctx)
	}
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	if asJSON {
		err = encodeJSON(out, diff)
	} else {
		err = writeDiff(out, diff)
	}
	if err != nil {
		return err
	}
	if failOnNew && len(diff.NewlyAffected) > 0 {
		return fmt.Errorf("%w: %d", errNewlyAffected, len(diff.NewlyAffected))
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRunList(w io.Writer, runs []database.RunRecord) error {
	var sb strings.Builder
	if len(runs) == 0 {
		sb.WriteString("No recorded runs.\n")
	}
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error: " + r.Error
		}
		fmt.Fprintf(&sb, "%s  %s  %d affected / %d scanned, %d matches, %s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.PagesAffected,
			r.PagesScanned,
			r.TotalMatches,
			r.Duration.Round(time.Millisecond),
			status,
		)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeDiff(w io.Writer, d *database.RunDiff) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Base:    %s\n", d.BaseID)
	fmt.Fprintf(&sb, "Target:  %s\n\n", d.TargetID)
	fmt.Fprintf(&sb, "Newly affected: %d\n", len(d.NewlyAffected))
	fmt.Fprintf(&sb, "Resolved:       %d\n", len(d.Resolved))
	fmt.Fprintf(&sb, "Persisting:     %d\n", d.Persisting)
	fmt.Fprintf(&sb, "Match change:   %+d\n\n", d.MatchDelta)

	if len(d.Priorities) > 0 {
		for _, p := range d.Priorities {
			fmt.Fprintf(&sb, "  %-8s %5d -> %-5d (%+d)\n",
				strings.ToUpper(p.Priority.String())+":", p.Before, p.After, p.Delta)
		}
		sb.WriteString("\n")
	}
	for _, u := range d.NewlyAffected {
		fmt.Fprintf(&sb, "  [+] %s\n", u)
	}
	for _, u := range d.Resolved {
		fmt.Fprintf(&sb, "  [-] %s\n", u)
	}
	if !d.HasChanges() {
		sb.WriteString("No changes in affected pages.\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
