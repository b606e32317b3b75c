// Package cli implements the verity command line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
	"github.com/custodia-labs/verity/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Service requirements, set as the "services" annotation on a command.
const (
	annotationServices = "services"
	needsNone          = "none"
	needsSettings      = "settings"
)

// Options are the global flags handed to the bootstrap function.
type Options struct {
	Verbose   bool
	Ephemeral bool

	// SettingsOnly skips AI provider and storage setup.
	SettingsOnly bool
}

// Services holds the driving ports the commands call.
type Services struct {
	Ask      driving.AskService
	Ingest   driving.IngestService
	Settings driving.SettingsService
	Reports  driven.ReportFactory
}

// Bootstrap builds services for a command run. The returned cleanup is
// called after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	askService      driving.AskService
	ingestService   driving.IngestService
	settingsService driving.SettingsService
	reportFactory   driven.ReportFactory

	bootstrap Bootstrap
	cleanup   func()

	verbose   bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "verity",
	Short: "Ask questions and get verified, cited answers from your documents",
	Long: `Verity answers questions from documents you ingest. Every draft answer
is checked against the retrieved passages. Unsupported claims trigger
another round of retrieval and generation until the answer is grounded
or no further progress is made.

Get started:
  verity ingest contract.pdf
  verity ask "How much notice is required to terminate?"`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep documents in memory for this run only")
}

// SetServices injects services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	askService = s.Ask
	ingestService = s.Ingest
	settingsService = s.Settings
	reportFactory = s.Reports
}

// SetBootstrap registers the function that builds services on demand.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by `verity version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	need := cmd.Annotations[annotationServices]
	if need == needsNone || bootstrap == nil {
		return nil
	}
	if need == needsSettings && settingsService != nil {
		return nil
	}
	if need == "" && askService != nil && ingestService != nil {
		return nil
	}

	svc, done, err := bootstrap(cmd.Context(), Options{
		Verbose:      verbose,
		Ephemeral:    ephemeral,
		SettingsOnly: need == needsSettings,
	})
	if err != nil {
		return fmt.Errorf("starting verity: %w", err)
	}
	SetServices(svc)
	cleanup = done
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	return nil
}

// errNotConfigured reports a service that was neither injected nor built.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
