package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "telebrief",
	Short: "A Telegram bot that retrieves and summarizes your Gmail",
	Long: `telebrief is a single-user Telegram bot that connects to Gmail through
OAuth2, fetches your most recent or today's messages, and delivers an
AI-generated summary back to the chat.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
