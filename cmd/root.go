package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "branch-greeter",
	Short: "Face recognition and triage queue for bank branch walk-ins",
	Long: `Branch Greeter recognizes returning customers from a webcam capture,
infers why they are probably visiting from their history and places them
into a priority-ordered service queue for branch staff.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
