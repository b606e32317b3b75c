package cli

import (
	"github.com/spf13/cobra"
)

// exampleQuestions suit contracts and agreements.
var exampleQuestions = []string{
	"How much notice is required to terminate the agreement?",
	"What are the payment terms and when are invoices due?",
	"Who owns the intellectual property created under this contract?",
	"What happens if either party breaches the confidentiality clause?",
	"Is there a limitation of liability, and what is the cap?",
	"Does the contract renew automatically?",
	"Which law governs the agreement and where are disputes resolved?",
}

var examplesCmd = &cobra.Command{
	Use:         "examples",
	Short:       "Print example questions",
	Annotations: map[string]string{annotationServices: needsNone},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("Try asking:")
		for _, q := range exampleQuestions {
			cmd.Printf("  verity ask %q\n", q)
		}
	},
}

func init() {
	rootCmd.AddCommand(examplesCmd)
}
