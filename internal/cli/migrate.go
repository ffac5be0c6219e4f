package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/bpbot/internal/db"
	"github.com/example/bpbot/internal/wire"
)

// MigrateCmd returns the migrate command.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Bring the database schema up to date and print its version.

Safe to run any number of times; applied migrations are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			database, err := wire.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			v, err := db.NewRunner(database, logger).CurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s schema at version %d (%s)\n",
				color.New(color.FgGreen).Sprint("✓"), v, cfg.Database.Path)
			return nil
		},
	}
}
