package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	statsJSON bool
	resetYes  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every document, chunk and vector",
	RunE:  runReset,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	stats, err := ingestService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Documents:       %d\n", stats.TotalDocuments)
	cmd.Printf("Chunks:          %d\n", stats.TotalChunks)
	cmd.Printf("Embedding model: %s\n", orNone(stats.EmbeddingModel))
	cmd.Printf("LLM model:       %s\n", orNone(stats.LLMModel))

	kinds := ingestService.SupportedKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = "." + string(k)
	}
	cmd.Printf("Formats:         %s\n", strings.Join(names, " "))
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	if !resetYes {
		cmd.Print("This removes every ingested document. Continue? [y/N]: ")
		answer := readLine(bufio.NewReader(cmd.InOrStdin()))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := ingestService.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
