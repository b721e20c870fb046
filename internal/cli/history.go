package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// DefaultHistoryLimit is the number of entries history shows by default.
const DefaultHistoryLimit = 20

// HistoryCmd creates the history command.
// The env parameter provides injectable dependencies for testing.
func HistoryCmd(env *Env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent extractions",
		Long: `List recent extractions, newest first.

History is stored in an SQLite database (config key: history). Set history
to "off" to stop recording.`,
		Example: `  extract history
  extract history --limit 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), env, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "Number of entries to show (0 for all)")

	return cmd
}

// runHistory prints one line per entry.
func runHistory(ctx context.Context, env *Env, limit int) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}
	if !cfg.HistoryEnabled() {
		return ErrHistoryDisabled
	}

	h, err := env.StoreFactory.OpenHistory(ctx, cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	entries, err := h.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(env.Stdout, "No extractions recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tTYPE\tSTATUS\tFILE\tOUTPUT")
	for _, e := range entries {
		status := "ok"
		if e.Failed() {
			status = "failed"
		}
		output := e.OutputPath
		if output == "" {
			output = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.FileType, status, e.SourcePath, output)
	}
	return tw.Flush()
}
