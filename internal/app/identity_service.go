package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/core/identity"
	"github.com/example/bpbot/internal/ports/secondary"
)

// IdentityService registers identities from shared contacts.
type IdentityService struct {
	identities secondary.IdentityRepository
	current    string
	logger     *zap.Logger
}

// RegisterResult reports what a contact share did.
type RegisterResult struct {
	Identity *secondary.IdentityRecord
	Created  bool

	// Rejected holds the guard reason when the contact was refused.
	Rejected string
}

// NewIdentityService creates a new IdentityService. New identities are
// stamped with current so they never see an upgrade notice for the build
// they registered on. The column's baseline default then only marks rows
// written before versioning existed, and a first-time user is not shown
// release notes for changes they never experienced the old way.
func NewIdentityService(identities secondary.IdentityRepository, current string, logger *zap.Logger) *IdentityService {
	return &IdentityService{identities: identities, current: current, logger: logger}
}

// Register stores the sender's phone number if the sender is not yet known.
func (s *IdentityService) Register(ctx context.Context, senderID int64, phone string, contactOwnerID int64) (*RegisterResult, error) {
	guard := identity.CanRegister(identity.RegisterContext{
		SenderID:       senderID,
		Phone:          phone,
		ContactOwnerID: contactOwnerID,
	})
	if !guard.Allowed {
		s.logger.Info("contact rejected",
			zap.Int64("identity_id", senderID),
			zap.Error(guard.Error()))
		return &RegisterResult{Rejected: guard.Reason}, nil
	}

	record, created, err := s.identities.Register(ctx, senderID, phone, s.current)
	if err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}
	if created {
		s.logger.Info("identity registered", zap.Int64("identity_id", senderID))
	}
	return &RegisterResult{Identity: record, Created: created}, nil
}

// Lookup returns the identity, or nil if it is not registered.
func (s *IdentityService) Lookup(ctx context.Context, id int64) (*secondary.IdentityRecord, error) {
	record, err := s.identities.GetByID(ctx, id)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	return record, nil
}
