package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question grounded in the indexed talks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of contexts to retrieve (defaults to config top_k)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	pipeline, err := buildQueryPipeline()
	if err != nil {
		return err
	}

	answer, err := pipeline.Answer(cmd.Context(), question, askTopK)
	if err != nil {
		return err
	}

	cmd.Println(answer.Text)
	cmd.Println()
	cmd.Println("Retrieved contexts:")
	for i, m := range answer.Retrieved {
		text := m.Record.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		cmd.Printf("%d. [%.3f] %s - %s (%s)\n", i+1, m.Score, m.Record.Title, m.Record.Speaker, m.Record.Source)
		cmd.Println("   " + text)
	}
	return nil
}
