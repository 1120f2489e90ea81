package events

import (
	"context"
	"errors"

	"github.com/metinatakli/cinema-booking/internal/domain"
)

// Multi delivers every event to all of its emitters.
type Multi []domain.EventEmitter

func (m Multi) Emit(ctx context.Context, name string, payload any) error {
	env, err := NewEnvelope(name, payload)
	if err != nil {
		return err
	}

	var errs []error
	for _, emitter := range m {
		if err := emitter.Emit(ctx, name, env); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
