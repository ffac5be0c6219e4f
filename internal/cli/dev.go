package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/bpbot/internal/db"
	"github.com/example/bpbot/internal/version"
	"github.com/example/bpbot/internal/wire"
)

// DevCmd returns the dev command group for development utilities.
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development utilities",
		Long: `Development utilities for working with a local bot database.

These commands require BPBOT_DB_PATH to be set explicitly so they never
touch the database named in a production config file.`,
	}

	cmd.AddCommand(devSeedCmd())
	return cmd
}

func devSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the dev database with fixture data",
		Long: `Create the schema if needed and insert fixture identities and readings.

Identity 1001 is on the current interface version, identity 1002 on the
baseline so the upgrade notice can be exercised. Running twice adds no
duplicate identities.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("BPBOT_DB_PATH") == "" {
				return fmt.Errorf("BPBOT_DB_PATH not set\n\nThis safety check prevents accidental seeding of your production database")
			}

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

			if err := db.SeedFixtures(cmd.Context(), database, version.Interface); err != nil {
				return err
			}
			fmt.Printf("✓ Seeded %s\n", cfg.Database.Path)
			return nil
		},
	}
}
