package storage

import (
	"context"
	"errors"

	"conditionScope/internal/model"
)

// Storage defines a sink for synced conditions.
type Storage interface {
	PutConditions(ctx context.Context, conditions []model.Condition) error
}

// Multi writes to every sink and joins their errors.
type Multi []Storage

func (m Multi) PutConditions(ctx context.Context, conditions []model.Condition) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PutConditions(ctx, conditions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
