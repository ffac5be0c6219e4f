package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/bpbot/internal/version"
	"github.com/example/bpbot/internal/wire"
)

// AdminCmd returns the admin command group for operator tasks.
func AdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator tasks against the bot database",
	}
	cmd.AddCommand(adminSetVersionCmd())
	return cmd
}

func adminSetVersionCmd() *cobra.Command {
	var identityID int64
	var notify bool

	cmd := &cobra.Command{
		Use:   "set-version [version]",
		Short: "Set the interface version marker",
		Long: `Set the interface version stored for identities.

Defaults to the version shipped by this build. Identities whose marker
differs from the build's see an upgrade notice on their next interaction.
With --notify, every identity is stamped with the build's version and sent
the notice right away.

Examples:
  bpbot admin set-version                 # all identities, build version
  bpbot admin set-version 1.0 --identity 42
  bpbot admin set-version --notify`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := version.Interface
			if len(args) == 1 {
				target = args[0]
			}
			if notify && (target != version.Interface || identityID != 0) {
				return fmt.Errorf("--notify only applies to all identities at version %s", version.Interface)
			}

			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if notify {
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}

			a, err := wire.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if notify {
				res, err := a.Admin.Broadcast(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%s %d identities set to %s\n", color.New(color.FgGreen).Sprint("✓"), res.Updated, target)
				fmt.Printf("  notice delivered: %d\n", res.Delivered)
				if res.Failed > 0 {
					fmt.Fprintf(os.Stderr, "  %s %d\n", color.New(color.FgYellow).Sprint("notice failed:"), res.Failed)
				}
				return nil
			}

			n, err := a.Admin.SetInterfaceVersion(cmd.Context(), target, identityID)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d identities set to %s\n", color.New(color.FgGreen).Sprint("✓"), n, target)
			return nil
		},
	}

	cmd.Flags().Int64Var(&identityID, "identity", 0, "Only update this identity")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the upgrade notice to every identity")
	return cmd
}

// BackupCmd returns the backup command.
func BackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create or reuse a database snapshot",
		Long: `Write a consistent copy of the database to the backup directory.

A snapshot younger than backup.max_age is reused instead of writing a new one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			a, err := wire.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Admin.Backup(cmd.Context())
			if err != nil {
				return err
			}
			state := color.New(color.FgGreen).Sprint("CREATED")
			if res.Reused {
				state = color.New(color.FgBlue).Sprint("REUSED ")
			}
			fmt.Printf("%s %s\n", state, res.Path)
			return nil
		},
	}
}

// ExportCSVCmd returns the export-csv command.
func ExportCSVCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-csv",
		Short: "Export every measurement as CSV",
		Long: `Write the full measurement table, all identities, as CSV.

Examples:
  bpbot export-csv --out measurements.csv
  bpbot export-csv > measurements.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			a, err := wire.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			content, err := a.Admin.ExportCSV(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(out, content, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(os.Stderr, "%s wrote %s\n", color.New(color.FgGreen).Sprint("✓"), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
