package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/core/versiongate"
	"github.com/example/bpbot/internal/ports/secondary"
)

// VersionGate stamps identities with the build's interface version the first
// time they interact after an upgrade.
type VersionGate struct {
	identities secondary.IdentityRepository
	current    string
	logger     *zap.Logger
}

// NewVersionGate creates a gate for the given interface version.
func NewVersionGate(identities secondary.IdentityRepository, current string, logger *zap.Logger) *VersionGate {
	return &VersionGate{identities: identities, current: current, logger: logger}
}

// Current returns the interface version the gate converges identities to.
func (g *VersionGate) Current() string {
	return g.current
}

// Check reads the stored marker and, when it differs from the current
// version, records the current one before reporting Interrupted. The write
// happens before the caller delivers the notice.
func (g *VersionGate) Check(ctx context.Context, identityID int64) (versiongate.Decision, error) {
	record, err := g.identities.GetByID(ctx, identityID)
	if err != nil {
		return versiongate.Unchanged, fmt.Errorf("failed to read interface version: %w", err)
	}

	decision := versiongate.Decide(record.InterfaceVersion, g.current)
	if decision == versiongate.Unchanged {
		return decision, nil
	}

	if err := g.identities.SetInterfaceVersion(ctx, identityID, g.current); err != nil {
		return versiongate.Unchanged, fmt.Errorf("failed to record interface version: %w", err)
	}
	g.logger.Info("interface version upgraded",
		zap.Int64("identity_id", identityID),
		zap.String("from", record.InterfaceVersion),
		zap.String("to", g.current))
	return decision, nil
}
