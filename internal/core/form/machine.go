// Package form contains the pure state machine behind the measurement entry
// dialogue. It performs no I/O: callers persist the returned session and act
// on the returned prompt and commit.
package form

import (
	"errors"
	"strconv"
	"strings"
)

// Step is a position in the form.
type Step string

const (
	StepIdle              Step = "idle"
	StepAwaitingSystolic  Step = "awaiting_systolic"
	StepAwaitingDiastolic Step = "awaiting_diastolic"
	StepAwaitingPulse     Step = "awaiting_pulse"
	StepAwaitingComment   Step = "awaiting_comment"
)

// Prompt names what the caller should ask for next.
type Prompt string

const (
	PromptSystolic  Prompt = "systolic"
	PromptDiastolic Prompt = "diastolic"
	PromptPulse     Prompt = "pulse"
	PromptComment   Prompt = "comment"
	PromptSaved     Prompt = "saved"
)

var (
	// ErrNotANumber rejects input at a numeric step. The session does not move.
	ErrNotANumber = errors.New("input is not a whole number")

	// ErrNoActiveSession is returned when advancing an idle session.
	ErrNoActiveSession = errors.New("no active form session")
)

// Session is the per-identity progress through the form. The zero value
// for a given identity is idle.
type Session struct {
	IdentityID int64
	Step       Step
	Systolic   *int
	Diastolic  *int
	Pulse      *int
}

// Active reports whether the session is mid-form.
func (s Session) Active() bool {
	return s.Step != "" && s.Step != StepIdle
}

// Input is one user turn while a form is active.
type Input struct {
	Text string
	Skip bool // the dedicated skip button at the comment step
}

// Reading is a completed form, ready to be appended.
type Reading struct {
	Systolic  int
	Diastolic int
	Pulse     int
	Comment   *string
}

// Outcome is the result of one transition.
type Outcome struct {
	Session Session
	Prompt  Prompt

	// Rejected is ErrNotANumber when the input did not advance the step.
	Rejected error

	// Commit is set exactly when the comment step completed. Session is
	// idle in that case.
	Commit *Reading
}

// Start begins a form, discarding any values collected by a previous one.
func Start(identityID int64) Outcome {
	return Outcome{
		Session: Session{IdentityID: identityID, Step: StepAwaitingSystolic},
		Prompt:  PromptSystolic,
	}
}

// Advance applies one input to an active session.
func Advance(s Session, in Input) (Outcome, error) {
	switch s.Step {
	case StepAwaitingSystolic:
		return numericStep(s, in, PromptSystolic, func(next *Session, v int) {
			next.Systolic = &v
			next.Step = StepAwaitingDiastolic
		}, PromptDiastolic), nil

	case StepAwaitingDiastolic:
		return numericStep(s, in, PromptDiastolic, func(next *Session, v int) {
			next.Diastolic = &v
			next.Step = StepAwaitingPulse
		}, PromptPulse), nil

	case StepAwaitingPulse:
		return numericStep(s, in, PromptPulse, func(next *Session, v int) {
			next.Pulse = &v
			next.Step = StepAwaitingComment
		}, PromptComment), nil

	case StepAwaitingComment:
		if s.Systolic == nil || s.Diastolic == nil || s.Pulse == nil {
			// Collected values went missing; start over rather than commit
			// a partial reading.
			return Start(s.IdentityID), nil
		}
		reading := &Reading{
			Systolic:  *s.Systolic,
			Diastolic: *s.Diastolic,
			Pulse:     *s.Pulse,
		}
		if !in.Skip {
			comment := in.Text
			reading.Comment = &comment
		}
		return Outcome{
			Session: Session{IdentityID: s.IdentityID, Step: StepIdle},
			Prompt:  PromptSaved,
			Commit:  reading,
		}, nil

	default:
		return Outcome{Session: s}, ErrNoActiveSession
	}
}

func numericStep(s Session, in Input, current Prompt, apply func(*Session, int), next Prompt) Outcome {
	v, err := ParseValue(in.Text)
	if err != nil {
		return Outcome{Session: s, Prompt: current, Rejected: err}
	}
	advanced := s
	apply(&advanced, v)
	return Outcome{Session: advanced, Prompt: next}
}

// ParseValue parses a base-10 integer, ignoring surrounding whitespace.
// No range check is applied.
func ParseValue(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, ErrNotANumber
	}
	return v, nil
}
