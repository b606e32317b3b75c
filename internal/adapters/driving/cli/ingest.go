package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/verity/internal/adapters/driving/watcher"
	"github.com/custodia-labs/verity/internal/core/domain"
)

var ingestRecursive bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Add documents to the index",
	Long: `Extracts, chunks, embeds and indexes each file.

Supported formats are .txt, .md, .pdf and .docx. Directories are scanned
for supported files; pass --recursive to descend into subdirectories.
Files that were already ingested are reported as duplicates.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "scan directories recursively")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}
	ctx := cmd.Context()

	var failed int
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var events []watcher.Event
		if info.IsDir() {
			events, err = watcher.New(path, ingestService, watcher.WithRecursive(ingestRecursive)).Scan(ctx)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if len(events) == 0 {
				cmd.Printf("No supported files in %s\n", path)
			}
		} else {
			events = []watcher.Event{ingestPath(ctx, path)}
		}

		for _, ev := range events {
			printEvent(cmd, ev)
			if ev.Action == watcher.ActionFailed {
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to ingest", failed)
	}
	return nil
}

func ingestPath(ctx context.Context, path string) watcher.Event {
	content, err := os.ReadFile(path)
	if err != nil {
		return watcher.Event{Path: path, Action: watcher.ActionFailed, Err: err}
	}
	res, err := ingestService.Ingest(ctx, domain.IngestRequest{
		Name:    filepath.Base(path),
		Content: content,
	})
	if err != nil {
		return watcher.Event{Path: path, Action: watcher.ActionFailed, Err: err}
	}
	action := watcher.ActionIngested
	if res.Duplicate {
		action = watcher.ActionDuplicate
	}
	return watcher.Event{Path: path, Action: action, DocumentID: res.DocumentID, Chunks: res.Chunks}
}

func printEvent(cmd *cobra.Command, ev watcher.Event) {
	switch ev.Action {
	case watcher.ActionIngested:
		cmd.Printf("Ingested %s: %d chunks (id %s)\n", ev.Path, ev.Chunks, ev.DocumentID)
	case watcher.ActionDuplicate:
		cmd.Printf("Already ingested %s (id %s)\n", ev.Path, ev.DocumentID)
	case watcher.ActionDeleted:
		cmd.Printf("Removed %s (id %s)\n", ev.Path, ev.DocumentID)
	case watcher.ActionFailed:
		cmd.PrintErrf("Failed %s: %v\n", ev.Path, ev.Err)
	}
}
