package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/core/form"
	"github.com/example/bpbot/internal/ports/secondary"
)

// FormService drives the measurement entry form, persisting the session
// between turns and appending the reading when the form completes.
type FormService struct {
	sessions     secondary.SessionStore
	measurements secondary.MeasurementRepository
	logger       *zap.Logger
}

// NewFormService creates a new FormService.
func NewFormService(sessions secondary.SessionStore, measurements secondary.MeasurementRepository, logger *zap.Logger) *FormService {
	return &FormService{sessions: sessions, measurements: measurements, logger: logger}
}

// Start begins a new form, overwriting any unfinished one.
func (s *FormService) Start(ctx context.Context, identityID int64) (form.Outcome, error) {
	out := form.Start(identityID)
	if err := s.sessions.Save(ctx, toSessionRecord(out.Session)); err != nil {
		return out, fmt.Errorf("failed to save form session: %w", err)
	}
	return out, nil
}

// Active returns the identity's unfinished form, or nil if there is none.
func (s *FormService) Active(ctx context.Context, identityID int64) (*form.Session, error) {
	record, err := s.sessions.Load(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form session: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	session := fromSessionRecord(record)
	if !session.Active() {
		return nil, nil
	}
	return &session, nil
}

// Advance applies one input. When the form completes the reading is
// appended before the session is cleared; if the append fails the error is
// returned with the outcome and the stored session stays where it was, so
// the same input can be sent again.
func (s *FormService) Advance(ctx context.Context, session form.Session, in form.Input) (form.Outcome, error) {
	out, err := form.Advance(session, in)
	if err != nil {
		return out, err
	}

	if out.Rejected != nil {
		return out, nil
	}

	if out.Commit != nil {
		id, err := s.measurements.Append(ctx, secondary.NewMeasurement{
			IdentityID: session.IdentityID,
			Systolic:   out.Commit.Systolic,
			Diastolic:  out.Commit.Diastolic,
			Pulse:      out.Commit.Pulse,
			Comment:    out.Commit.Comment,
		})
		if err != nil {
			return out, fmt.Errorf("failed to save reading: %w", err)
		}
		s.logger.Debug("measurement appended",
			zap.Int64("identity_id", session.IdentityID),
			zap.Int64("measurement_id", id))
		if err := s.sessions.Clear(ctx, session.IdentityID); err != nil {
			s.logger.Warn("failed to clear form session",
				zap.Int64("identity_id", session.IdentityID),
				zap.Error(err))
		}
		return out, nil
	}

	if err := s.sessions.Save(ctx, toSessionRecord(out.Session)); err != nil {
		return out, fmt.Errorf("failed to save form session: %w", err)
	}
	return out, nil
}

// Abandon drops any unfinished form.
func (s *FormService) Abandon(ctx context.Context, identityID int64) error {
	if err := s.sessions.Clear(ctx, identityID); err != nil {
		return fmt.Errorf("failed to clear form session: %w", err)
	}
	return nil
}

func toSessionRecord(s form.Session) *secondary.FormSessionRecord {
	return &secondary.FormSessionRecord{
		IdentityID: s.IdentityID,
		Step:       string(s.Step),
		Systolic:   s.Systolic,
		Diastolic:  s.Diastolic,
		Pulse:      s.Pulse,
	}
}

func fromSessionRecord(r *secondary.FormSessionRecord) form.Session {
	return form.Session{
		IdentityID: r.IdentityID,
		Step:       form.Step(r.Step),
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      r.Pulse,
	}
}
