// Package wire provides dependency injection for the bot.
// It builds every adapter and service from the loaded configuration.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/bpbot/internal/adapters/filesystem"
	"github.com/example/bpbot/internal/adapters/report"
	"github.com/example/bpbot/internal/adapters/session"
	"github.com/example/bpbot/internal/adapters/sqlite"
	"github.com/example/bpbot/internal/adapters/telegram"
	"github.com/example/bpbot/internal/app"
	"github.com/example/bpbot/internal/config"
	"github.com/example/bpbot/internal/db"
	"github.com/example/bpbot/internal/ports/primary"
	"github.com/example/bpbot/internal/ports/secondary"
	"github.com/example/bpbot/internal/version"
)

// queueBuffer is how many events each worker lane holds before Enqueue blocks.
const queueBuffer = 64

// App holds the assembled object graph.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sql.DB

	Conversation primary.ConversationService
	Admin        primary.AdminService

	admin   *app.AdminServiceImpl
	client  *telegram.Client
	redis   *redis.Client
	closers []func() error
}

// OpenStore opens the database and brings its schema up to date. A schema
// failure is returned as *db.SchemaError.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	database, err := db.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := db.NewRunner(database, logger).EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Build opens the store, runs migrations and wires every service.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	database, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, DB: database}
	a.closers = append(a.closers, database.Close)

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	identities := sqlite.NewIdentityRepository(database)
	measurements := sqlite.NewMeasurementRepository(database)
	renderer := report.NewRenderer()
	backups := filesystem.NewBackupStore(database, cfg.Backup.Dir, cfg.Backup.MaxAge, logger)

	a.client = telegram.NewClient(telegram.ClientConfig{
		Token:      cfg.Telegram.Token,
		APIURL:     cfg.Telegram.APIURL,
		Timeout:    cfg.Telegram.HTTPTimeout,
		RetryCount: cfg.Telegram.RetryCount,
	}, logger)
	executor := app.NewEffectExecutor(telegram.NewMessenger(a.client), logger)

	current := version.Interface
	admin := app.NewAdminService(app.AdminDeps{
		Identities:   identities,
		Measurements: measurements,
		Renderer:     renderer,
		Backups:      backups,
		Executor:     executor,
	}, current, cfg.AdminIDs, logger)

	a.Admin = admin
	a.admin = admin
	a.Conversation = app.NewConversationService(app.ConversationDeps{
		Identities: app.NewIdentityService(identities, current, logger),
		Gate:       app.NewVersionGate(identities, current, logger),
		Forms:      app.NewFormService(sessions, measurements, logger),
		History:    app.NewHistoryService(measurements, renderer, cfg.History.RecentLimit),
		Admin:      admin,
		Executor:   executor,
	}, logger)

	return a, nil
}

func (a *App) sessionStore(ctx context.Context) (secondary.SessionStore, error) {
	cfg := a.Config.Session
	if cfg.Backend != config.SessionRedis {
		return session.NewMemoryStore(), nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, a.redis.Close)

	store := session.NewRedisStore(a.redis, cfg.Redis.KeyPrefix, cfg.TTL)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	a.Logger.Info("form sessions stored in redis", zap.String("addr", cfg.Redis.Addr))
	return store, nil
}

// Serve runs the configured transport and the dispatch queue until ctx is
// cancelled or the transport fails.
func (a *App) Serve(ctx context.Context) error {
	me, err := a.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach bot api: %w", err)
	}
	a.Logger.Info("bot authenticated",
		zap.String("username", me.Username),
		zap.String("mode", a.Config.Telegram.Mode),
		zap.String("interface_version", version.Interface))

	queue := telegram.NewQueue(a.Conversation, a.Config.Workers, queueBuffer, a.Logger)

	var transport func(context.Context) error
	switch a.Config.Telegram.Mode {
	case config.ModeWebhook:
		if url := a.Config.Telegram.WebhookURL; url != "" {
			if err := a.client.SetWebhook(ctx, url, a.Config.Telegram.WebhookSecret); err != nil {
				return err
			}
		}
		server := telegram.NewWebhookServer(a.Config.Telegram.WebhookListen, a.Config.Telegram.WebhookPath,
			a.Config.Telegram.WebhookSecret, queue, a.Logger)
		transport = server.Run
	default:
		if err := a.client.DeleteWebhook(ctx); err != nil {
			return err
		}
		transport = telegram.NewPoller(a.client, queue, a.Config.Telegram.PollTimeout, a.Logger).Run
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return queue.Run(ctx) })
	g.Go(func() error { return transport(ctx) })

	err = g.Wait()
	a.admin.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the store and any session backend connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
