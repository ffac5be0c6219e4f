package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/config"
	"github.com/example/bpbot/internal/logging"
)

// ConfigPath is bound to the root command's --config flag.
var ConfigPath string

const serviceName = "bpbot"

// loadEnv reads the configuration and builds the logger every command uses.
func loadEnv() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}
