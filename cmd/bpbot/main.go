package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/bpbot/internal/cli"
	"github.com/example/bpbot/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "bpbot",
		Short:   "bpbot - blood pressure diary bot",
		Version: version.String(),
		Long: `bpbot is a chat bot that keeps a blood pressure diary.
Users register by sharing their phone number, then record readings,
list them, and receive charts and spreadsheets.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cli.ConfigPath, "config", "c", os.Getenv("BPBOT_CONFIG"), "Path to YAML config file")

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.AdminCmd())
	rootCmd.AddCommand(cli.BackupCmd())
	rootCmd.AddCommand(cli.ExportCSVCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	// Developer tools
	rootCmd.AddCommand(cli.DevCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
