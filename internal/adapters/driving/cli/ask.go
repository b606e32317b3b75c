package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/verity/internal/adapters/driving/cli/render"
	"github.com/custodia-labs/verity/internal/core/domain"
)

var (
	askJSON   bool
	askLog    bool
	askReport string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Long: `Retrieves passages, drafts an answer and verifies every claim against
the cited sources. Answers that fail verification are corrected with
wider retrieval until they are grounded or stop improving.

The answer is printed with a confidence badge (HIGH >= 90%, MEDIUM >= 70%,
otherwise LOW) and its numbered sources. Answers that were not accepted
are flagged as unverified.`,
	Example: `  verity ask "How much notice is required to terminate?"
  verity ask --log "What is the payment term?"
  verity ask --report answer.pdf "Who owns the deliverables?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the result as JSON")
	askCmd.Flags().BoolVar(&askLog, "log", false, "print the correction log")
	askCmd.Flags().StringVar(&askReport, "report", "", "also write a report (.md, .docx or .pdf)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errNotConfigured("ask")
	}
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty: %w", domain.ErrInvalidInput)
	}

	var format domain.ReportFormat
	if askReport != "" {
		if reportFactory == nil {
			return errNotConfigured("report")
		}
		f, err := domain.ReportFormatFromPath(askReport)
		if err != nil {
			return err
		}
		// Fail before the correction loop runs if the format is disabled.
		if _, err := reportFactory.Create(f); err != nil {
			return err
		}
		format = f
	}

	res, err := askService.Ask(cmd.Context(), question)
	if err != nil {
		return describeAskError(err)
	}

	if askJSON {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else {
		render.Answer(cmd.OutOrStdout(), res, render.Options{
			Colour:  render.ColourEnabled(cmd.OutOrStdout()),
			ShowLog: askLog,
		})
	}

	if format != "" {
		if err := writeReport(format, askReport, res); err != nil {
			return err
		}
		cmd.PrintErrf("Report written to %s\n", askReport)
	}
	return nil
}

func writeReport(format domain.ReportFormat, path string, res *domain.AskResult) error {
	formatter, err := reportFactory.Create(format)
	if err != nil {
		return err
	}
	data, err := formatter.Format(res)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// describeAskError names the failing stage for the user.
func describeAskError(err error) error {
	var askErr *domain.AskError
	if !errors.As(err, &askErr) {
		return fmt.Errorf("ask failed: %w", err)
	}
	if errors.Is(err, domain.ErrIndexEmpty) {
		return fmt.Errorf("no documents ingested yet, run `verity ingest <file>` first: %w", err)
	}
	return fmt.Errorf("%s failed on iteration %d (%s): %w", askErr.Stage, askErr.Iteration+1, askErr.Kind(), err)
}
