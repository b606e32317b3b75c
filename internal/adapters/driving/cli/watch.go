package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/verity/internal/adapters/driving/watcher"
)

var (
	watchRecursive bool
	watchDebounce  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest a directory and keep it in sync",
	Long: `Ingests every supported file in the directory, then watches it.
New and changed files are re-ingested after a short debounce; a changed
file replaces its previous version. Deleted files are removed from the
index. Stop with ctrl+c.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "watch subdirectories")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before re-ingesting a file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	ctx := cmd.Context()

	w := watcher.New(args[0], ingestService,
		watcher.WithRecursive(watchRecursive),
		watcher.WithDebounce(watchDebounce),
	)
	defer w.Close()

	initial, err := w.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", args[0], err)
	}
	for _, ev := range initial {
		printEvent(cmd, ev)
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", args[0], err)
	}
	cmd.Printf("Watching %s for changes...\n", args[0])

	for ev := range events {
		printEvent(cmd, ev)
	}
	return nil
}
