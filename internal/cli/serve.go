package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/bpbot/internal/db"
	"github.com/example/bpbot/internal/wire"
)

// ServeCmd returns the serve command that runs the bot.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long: `Run the bot with the configured transport.

Opens the database, applies pending migrations, then receives updates by
long polling or webhook until SIGINT or SIGTERM.

Examples:
  bpbot serve
  bpbot serve --config /etc/bpbot.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := wire.Build(ctx, cfg, logger)
			if err != nil {
				var schemaErr *db.SchemaError
				if errors.As(err, &schemaErr) {
					logger.Error("schema initialization failed", zap.Error(err))
				}
				return err
			}
			defer a.Close()

			logger.Info("bot starting", zap.String("database", cfg.Database.Path))
			if err := a.Serve(ctx); err != nil {
				return err
			}
			logger.Info("bot stopped")
			return nil
		},
	}
}
