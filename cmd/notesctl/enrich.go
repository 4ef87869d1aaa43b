package main

import (
	"fmt"

	"intelliprep-notes-be/pkg/enrichment"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	enhanceMode string

	questionCategory   string
	questionBackground string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, firstArg(args))
		if err != nil {
			return err
		}
		client, err := newEnrichmentClient()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), client.Summarize(cmd.Context(), text))
		return nil
	},
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance [file]",
	Short: "Rewrite a file or stdin (grammar, expand, simplify)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := enrichment.Mode(enhanceMode)
		if !mode.Valid() {
			return fmt.Errorf("unknown mode %q", enhanceMode)
		}
		text, err := readInput(cmd, firstArg(args))
		if err != nil {
			return err
		}
		client, err := newEnrichmentClient()
		if err != nil {
			return err
		}
		out, err := client.Enhance(cmd.Context(), text, mode)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate interview practice questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newEnrichmentClient()
		if err != nil {
			return err
		}
		color.Cyan("%s questions", questionCategory)
		for i, q := range client.GenerateQuestions(cmd.Context(), questionCategory, questionBackground) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, q)
		}
		return nil
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	rootCmd.AddCommand(summarizeCmd, enhanceCmd, questionsCmd)

	enhanceCmd.Flags().StringVarP(&enhanceMode, "mode", "m", string(enrichment.ModeGrammar), "grammar, expand or simplify")

	questionsCmd.Flags().StringVarP(&questionCategory, "category", "c", "behavioral", "Question category")
	questionsCmd.Flags().StringVarP(&questionBackground, "background", "b", "", "Candidate background")
}
