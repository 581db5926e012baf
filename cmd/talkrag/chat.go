package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"talkrag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question loop over the indexed talks",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	pipeline, err := buildQueryPipeline()
	if err != nil {
		return err
	}

	m := tui.New(pipeline)
	_, err = tea.NewProgram(m).Run()
	return err
}
