package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Personal journaling with local AI insights",
	Long:  "Inkwell keeps a plain-text journal and periodically asks a locally hosted language model for insights, tracking recurring themes over time. Single Go binary, everything stays on your machine.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(themesCmd)
}
