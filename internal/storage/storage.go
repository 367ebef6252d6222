package storage

import (
	"context"
	"errors"

	"libraStats/internal/model"
)

// Storage defines a sink for metric snapshots.
type Storage interface {
	PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error
}

// Fanout writes every batch to each sink, reporting all failures together.
type Fanout []Storage

// PutSnapshots implements Storage.
func (f Fanout) PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error {
	var errs []error
	for _, sink := range f {
		if err := sink.PutSnapshots(ctx, snapshots); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
