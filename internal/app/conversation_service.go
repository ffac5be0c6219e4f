package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bpbot/internal/core/effects"
	"github.com/example/bpbot/internal/core/form"
	"github.com/example/bpbot/internal/core/identity"
	"github.com/example/bpbot/internal/core/versiongate"
	"github.com/example/bpbot/internal/ctxutil"
	"github.com/example/bpbot/internal/ports/primary"
)

// action is what an inbound event asks for, independent of session state.
type action int

const (
	actionFreeText action = iota
	actionSkip
	actionStart
	actionAddReading
	actionRecent
	actionChart
	actionExport
	actionLogout
	actionWhatsNew
	actionAdmin
	actionUnknownCommand
)

var buttonActions = map[string]action{
	BtnStart:       actionStart,
	BtnAddReading:  actionAddReading,
	BtnRecent:      actionRecent,
	BtnChart:       actionChart,
	BtnExport:      actionExport,
	BtnLogout:      actionLogout,
	BtnWhatsNew:    actionWhatsNew,
	BtnSkipComment: actionSkip,
}

func classify(ev primary.Event) action {
	switch ev.Kind {
	case primary.EventCommand:
		switch {
		case ev.Command == "start":
			return actionStart
		case IsAdminCommand(ev.Command):
			return actionAdmin
		default:
			return actionUnknownCommand
		}
	case primary.EventText:
		if a, ok := buttonActions[ev.Text]; ok {
			return a
		}
	}
	return actionFreeText
}

// ConversationServiceImpl implements the ConversationService interface. It
// is the session dispatcher: every inbound event is routed here.
type ConversationServiceImpl struct {
	identities *IdentityService
	gate       *VersionGate
	forms      *FormService
	history    *HistoryService
	admin      *AdminServiceImpl
	executor   EffectExecutor
	logger     *zap.Logger
}

// ConversationDeps groups the collaborators of the dispatcher.
type ConversationDeps struct {
	Identities *IdentityService
	Gate       *VersionGate
	Forms      *FormService
	History    *HistoryService
	Admin      *AdminServiceImpl
	Executor   EffectExecutor
}

// NewConversationService creates a new ConversationService.
func NewConversationService(deps ConversationDeps, logger *zap.Logger) *ConversationServiceImpl {
	return &ConversationServiceImpl{
		identities: deps.Identities,
		gate:       deps.Gate,
		forms:      deps.Forms,
		history:    deps.History,
		admin:      deps.Admin,
		executor:   deps.Executor,
		logger:     logger,
	}
}

// HandleEvent routes one event and delivers the replies. Storage failures
// are logged and answered with an apology; delivery failures are logged.
func (s *ConversationServiceImpl) HandleEvent(ctx context.Context, ev primary.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ctx = ctxutil.WithEventID(ctx, ev.ID)
	log := s.logger.With(
		zap.String("event_id", ev.ID),
		zap.Int64("identity_id", ev.IdentityID),
		zap.String("kind", string(ev.Kind)))

	effs, err := s.route(ctx, log, ev)
	if err != nil {
		log.Error("failed to handle event", zap.Error(err))
		effs = []effects.Effect{text(ev.IdentityID, msgSomethingWrong, nil)}
	}

	if err := s.executor.Execute(ctx, effs); err != nil {
		log.Warn("reply not delivered", zap.Error(err))
	}
	return ctx.Err()
}

func (s *ConversationServiceImpl) route(ctx context.Context, log *zap.Logger, ev primary.Event) ([]effects.Effect, error) {
	chatID := ev.IdentityID

	if ev.Kind == primary.EventContact {
		return s.register(ctx, ev)
	}

	known, err := s.identities.Lookup(ctx, ev.IdentityID)
	if err != nil {
		return nil, err
	}
	if known == nil {
		log.Debug("unregistered identity, asking for contact")
		return []effects.Effect{text(chatID, msgRegister, contactKeyboard())}, nil
	}

	act := classify(ev)

	session, err := s.forms.Active(ctx, ev.IdentityID)
	if err != nil {
		return nil, err
	}

	var audit []effects.Effect
	if session != nil {
		switch {
		case act == actionFreeText, act == actionSkip:
			return s.advance(ctx, *session, form.Input{Text: ev.Text, Skip: act == actionSkip})
		case session.Step == form.StepAwaitingComment && ev.Kind == primary.EventText:
			// Any text is a comment, keyboard labels included.
			return s.advance(ctx, *session, form.Input{Text: ev.Text})
		case act == actionUnknownCommand:
			return []effects.Effect{text(chatID, msgUnrecognized, nil)}, nil
		default:
			if err := s.forms.Abandon(ctx, ev.IdentityID); err != nil {
				return nil, err
			}
			audit = append(audit, effects.LogEffect{
				Level:   "info",
				Message: "form abandoned",
				Fields:  map[string]any{"identity_id": chatID, "step": string(session.Step)},
			})
		}
	}

	effs, err := s.dispatch(ctx, ev, act)
	if err != nil {
		return nil, err
	}
	return append(audit, effs...), nil
}

func (s *ConversationServiceImpl) dispatch(ctx context.Context, ev primary.Event, act action) ([]effects.Effect, error) {
	chatID := ev.IdentityID

	switch act {
	case actionStart:
		return s.gated(ctx, chatID, func() ([]effects.Effect, error) {
			return []effects.Effect{text(chatID, msgMenu, mainMenu())}, nil
		})
	case actionAddReading:
		return s.gated(ctx, chatID, func() ([]effects.Effect, error) {
			out, err := s.forms.Start(ctx, ev.IdentityID)
			if err != nil {
				return nil, err
			}
			return []effects.Effect{promptFor(chatID, out.Prompt)}, nil
		})
	case actionRecent:
		return s.gated(ctx, chatID, func() ([]effects.Effect, error) {
			return s.history.Recent(ctx, chatID)
		})
	case actionChart:
		return s.gated(ctx, chatID, func() ([]effects.Effect, error) {
			return s.history.Chart(ctx, chatID)
		})
	case actionExport:
		return s.gated(ctx, chatID, func() ([]effects.Effect, error) {
			return s.history.Export(ctx, chatID)
		})
	case actionLogout:
		return []effects.Effect{text(chatID, msgLoggedOut, effects.RemoveKeyboard())}, nil
	case actionWhatsNew:
		return []effects.Effect{text(chatID, msgReleaseNotes(s.gate.Current()), mainMenu())}, nil
	case actionAdmin:
		return s.admin.HandleCommand(ctx, chatID, ev.Command)
	default:
		return []effects.Effect{text(chatID, msgUnrecognized, mainMenu())}, nil
	}
}

func (s *ConversationServiceImpl) register(ctx context.Context, ev primary.Event) ([]effects.Effect, error) {
	res, err := s.identities.Register(ctx, ev.IdentityID, ev.Phone, ev.ContactOwnerID)
	if err != nil {
		return nil, err
	}
	switch {
	case res.Rejected == identity.ReasonNoPhone:
		return []effects.Effect{text(ev.IdentityID, msgNoPhone, contactKeyboard())}, nil
	case res.Rejected != "":
		return []effects.Effect{text(ev.IdentityID, msgForeignContact, contactKeyboard())}, nil
	case res.Created:
		return []effects.Effect{text(ev.IdentityID, msgRegistered, mainMenu())}, nil
	default:
		return []effects.Effect{text(ev.IdentityID, msgAlreadyKnown, mainMenu())}, nil
	}
}

// gated runs next unless the version gate interrupts, in which case the
// upgrade notice replaces next's reply.
func (s *ConversationServiceImpl) gated(ctx context.Context, chatID int64, next func() ([]effects.Effect, error)) ([]effects.Effect, error) {
	decision, err := s.gate.Check(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if decision == versiongate.Interrupted {
		return upgradeNotice(chatID, s.gate.Current()), nil
	}
	return next()
}

func (s *ConversationServiceImpl) advance(ctx context.Context, session form.Session, in form.Input) ([]effects.Effect, error) {
	chatID := session.IdentityID
	return s.gated(ctx, chatID, func() ([]effects.Effect, error) {
		out, err := s.forms.Advance(ctx, session, in)
		if err != nil {
			if out.Commit != nil {
				return []effects.Effect{
					text(chatID, msgSaveFailed, skipKeyboard()),
					effects.LogEffect{
						Level:   "error",
						Message: "reading not saved",
						Fields:  map[string]any{"identity_id": chatID, "error": err.Error()},
					},
				}, nil
			}
			return nil, fmt.Errorf("failed to advance form: %w", err)
		}
		if out.Rejected != nil {
			return []effects.Effect{
				text(chatID, msgNotANumber, nil),
				promptFor(chatID, out.Prompt),
			}, nil
		}
		effs := []effects.Effect{promptFor(chatID, out.Prompt)}
		if r := out.Commit; r != nil {
			effs = append(effs, effects.LogEffect{
				Level:   "info",
				Message: "reading saved",
				Fields: map[string]any{
					"identity_id": chatID,
					"systolic":    r.Systolic,
					"diastolic":   r.Diastolic,
					"pulse":       r.Pulse,
					"has_comment": r.Comment != nil,
				},
			})
		}
		return effs, nil
	})
}

// Ensure ConversationServiceImpl implements the interface
var _ primary.ConversationService = (*ConversationServiceImpl)(nil)
