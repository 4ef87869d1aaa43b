package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"intelliprep-notes-be/internal/config"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/pkg/enrichment"
	"intelliprep-notes-be/pkg/llm/factory"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose bool

	cfg    *config.Config
	cliLog logger.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Operate the IntelliPrep notes backend from a terminal",
	Long: `notesctl runs the same enrichment client and note store the REST server uses.
Configuration is read from .env and the environment.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if verbose {
			cliLog = logger.NewZapLogger(cfg.App.LogFilePath, false)
			return
		}
		cliLog = logger.NewNop()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write logs to LOG_FILE_PATH")
}

func newEnrichmentClient() (*enrichment.Client, error) {
	provider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Keys.GoogleGemini)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	return enrichment.NewClient(provider, cliLog), nil
}

// readInput returns the named file, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("no input text")
	}
	return text, nil
}
