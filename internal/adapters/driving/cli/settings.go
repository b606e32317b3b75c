package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/verity/internal/core/domain"
)

var settingsAnnotations = map[string]string{annotationServices: needsSettings}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	Long:        `View and edit the settings stored in the config file.`,
	Annotations: settingsAnnotations,
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show effective settings",
	Annotations: settingsAnnotations,
	RunE:        runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:         "get <key>",
	Short:       "Print a stored value",
	Args:        cobra.ExactArgs(1),
	Annotations: settingsAnnotations,
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a value",
	Long: `Validates and stores a value in the config file.

API keys may be omitted from the command line; you will be prompted for
them without echo.

Examples:
  verity config set engine.max_iterations 5
  verity config set llm.provider openai
  verity config set llm.api_key`,
	Args:        cobra.RangeArgs(1, 2),
	Annotations: settingsAnnotations,
	RunE:        runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:         "unset <key>",
	Short:       "Remove a stored value, restoring the default",
	Args:        cobra.ExactArgs(1),
	Annotations: settingsAnnotations,
	RunE:        runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Annotations: settingsAnnotations,
	RunE:        runConfigPath,
}

var configKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List recognised keys",
	Annotations: settingsAnnotations,
	RunE:        runConfigKeys,
}

var configCheckCmd = &cobra.Command{
	Use:         "check",
	Short:       "Check that the configured providers are reachable",
	Annotations: settingsAnnotations,
	RunE:        runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	e := s.Engine
	cmd.Println("[Engine]")
	cmd.Printf("  max_iterations:         %d\n", e.MaxIterations)
	cmd.Printf("  acceptance_threshold:   %.2f\n", e.AcceptanceThreshold)
	cmd.Printf("  min_improvement_margin: %.2f\n", e.MinImprovementMargin)
	cmd.Printf("  retrieval_k:            %d\n", e.RetrievalK)
	cmd.Printf("  chunk_size:             %d\n", e.ChunkSize)
	cmd.Printf("  chunk_overlap:          %d\n", e.ChunkOverlap)
	cmd.Printf("  max_file_bytes:         %d\n", e.MaxFileBytes)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey)
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey)
	cmd.Println()

	cmd.Println("[UniDoc]")
	if s.UniDoc.Licensed() {
		cmd.Printf("  License Key: %s\n", maskAPIKey(s.UniDoc.LicenseKey))
	} else {
		cmd.Println("  License Key: (not set, DOCX reports disabled)")
	}
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.Path())
	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) {
	if provider == "" {
		cmd.Println("  Provider: (not set)")
		return
	}
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", orNone(model))
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Println("  API Key: (not set)")
		}
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	v, ok := settingsService.Value(args[0])
	if !ok {
		return fmt.Errorf("%s is not set", args[0])
	}
	if isSecretKey(args[0]) {
		v = maskAPIKey(fmt.Sprint(v))
	}
	cmd.Println(v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case isSecretKey(key):
		cmd.Printf("Enter %s: ", key)
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	if err := settingsService.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("Unset %s\n", args[0])
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	cmd.Println(settingsService.Path())
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	checks, err := settingsService.Check()
	if err != nil {
		return fmt.Errorf("failed to check providers: %w", err)
	}

	var failed bool
	for _, c := range checks {
		switch {
		case !c.Configured:
			cmd.Printf("%-10s not configured\n", c.Component)
		case c.Err != nil:
			failed = true
			cmd.Printf("%-10s %s (%s): %v\n", c.Component, c.Provider, c.Model, c.Err)
		default:
			cmd.Printf("%-10s %s (%s): ok\n", c.Component, c.Provider, c.Model)
		}
	}
	if failed {
		return fmt.Errorf("one or more providers are unreachable")
	}
	return nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "license_key")
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(bufio.NewReader(os.Stdin))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
