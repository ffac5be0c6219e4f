// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/core/effects"
	"github.com/example/bpbot/internal/ctxutil"
	"github.com/example/bpbot/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place chat I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DeliveryError reports an effect the messenger could not deliver.
type DeliveryError struct {
	ChatID int64
	Effect string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s to chat %d: %v", e.Effect, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// DefaultEffectExecutor implements EffectExecutor against a Messenger.
type DefaultEffectExecutor struct {
	messenger secondary.Messenger
	logger    *zap.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(messenger secondary.Messenger, logger *zap.Logger) *DefaultEffectExecutor {
	return &DefaultEffectExecutor{messenger: messenger, logger: logger}
}

// Execute attempts every effect in order. A failed delivery does not stop
// the ones after it; all failures are joined into the returned error.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	var errs []error
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.SendTextEffect:
		err := e.messenger.SendText(ctx, typed.ChatID, typed.Text, toReplyMarkup(typed.Keyboard))
		return wrapDelivery(typed.ChatID, eff, err)
	case effects.SendPhotoEffect:
		err := e.messenger.SendPhoto(ctx, typed.ChatID, typed.Image, typed.Caption)
		return wrapDelivery(typed.ChatID, eff, err)
	case effects.SendDocumentEffect:
		err := e.messenger.SendDocument(ctx, typed.ChatID, typed.Content, typed.Filename, typed.Caption)
		return wrapDelivery(typed.ChatID, eff, err)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.log(ctx, typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) log(ctx context.Context, eff effects.LogEffect) {
	fields := make([]zap.Field, 0, len(eff.Fields)+1)
	if id := ctxutil.EventIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("event_id", id))
	}
	for k, v := range eff.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message, fields...)
	case "warn":
		e.logger.Warn(eff.Message, fields...)
	case "error":
		e.logger.Error(eff.Message, fields...)
	default:
		e.logger.Info(eff.Message, fields...)
	}
}

func wrapDelivery(chatID int64, eff effects.Effect, err error) error {
	if err == nil {
		return nil
	}
	return &DeliveryError{ChatID: chatID, Effect: eff.EffectType(), Err: err}
}

func toReplyMarkup(kb *effects.Keyboard) *secondary.ReplyMarkup {
	if kb == nil {
		return nil
	}
	return &secondary.ReplyMarkup{Rows: kb.Rows, RequestContact: kb.RequestContact, Remove: kb.Remove}
}
