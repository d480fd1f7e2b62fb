package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyboard/internal/credentials"
	"storyboard/pkg/config"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage model credentials",
	Long:  `Check or pick the Gemini API key used for analysis and rendering.`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which services are configured",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the Gemini API key",
	Long:  `Prompt for a Gemini API key and save it as GEMINI_API_KEY in the env file.`,
	Args:  cobra.NoArgs,
	RunE:  runAuthSelect,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authSelectCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(infoStyle.Render("\nService Authentication Status:\n"))

	switch {
	case cfg.GeminiAPIKey != "":
		fmt.Println(successStyle.Render("✓ Gemini: API key configured"))
	case cfg.GeminiAPIKeySecret != "":
		fmt.Println(successStyle.Render("✓ Gemini: API key read from Secret Manager (" + cfg.GeminiAPIKeySecret + ")"))
	default:
		fmt.Println(errorStyle.Render("✗ Gemini: missing GEMINI_API_KEY"))
		fmt.Println(infoStyle.Render("  Run: storyboard auth select"))
	}

	if cfg.GroqAPIKey != "" {
		fmt.Println(successStyle.Render("✓ Groq: API key configured"))
	} else if cfg.Analysis.Provider == config.ProviderGroq {
		fmt.Println(errorStyle.Render("✗ Groq: missing GROQ_API_KEY"))
	} else {
		fmt.Println(labelStyle.Render("- Groq: not used"))
	}

	if cfg.Export.GCS.Enabled {
		if cfg.GCSBucket != "" {
			fmt.Println(successStyle.Render("✓ GCS: exporting to bucket " + cfg.GCSBucket))
		} else {
			fmt.Println(errorStyle.Render("✗ GCS: enabled, but GCS_BUCKET is not set"))
		}
	} else {
		fmt.Println(labelStyle.Render("- GCS: disabled, exporting to " + cfg.Export.OutputDir))
	}

	fmt.Println()
	return nil
}

func runAuthSelect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := credentials.NewStore(cfg.GeminiAPIKey)
	selector := credentials.NewPromptSelector(store, cfg.Credentials.EnvFile)
	if err := selector.Select(cmd.Context()); err != nil {
		return quietAbort(err)
	}

	fmt.Println(successStyle.Render("✓ Gemini API key saved to " + cfg.Credentials.EnvFile))
	return nil
}
