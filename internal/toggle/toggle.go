// Package toggle flips the presence of a relation record: absent becomes
// present and present becomes absent.
//
// Stores are expected to back the relation with a uniqueness constraint on
// the key, so that two concurrent creates surface as repositories.ErrConflict
// and two concurrent deletes surface as repositories.ErrNotFound. Both are
// absorbed here: the caller sees the state they asked for.
package toggle

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/repositories"
)

// Status reports which way the relation was flipped.
type Status int

const (
	Created Status = iota + 1
	Removed
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Store persists relation records of type R addressed by key K. The key must
// include the acting user.
type Store[K any, R any] interface {
	Find(ctx context.Context, key K) (R, error)
	Create(ctx context.Context, key K) (R, error)
	Delete(ctx context.Context, key K) error
}

// Result is the outcome of a toggle. Record is the relation row when Status
// is Created and the removed row when Status is Removed.
type Result[R any] struct {
	Status Status
	Record R
}

// Toggle creates the relation when it does not exist and deletes it when it does.
func Toggle[K any, R any](ctx context.Context, store Store[K, R], key K) (Result[R], error) {
	existing, err := store.Find(ctx, key)
	switch {
	case err == nil:
		if err := store.Delete(ctx, key); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return Result[R]{}, fmt.Errorf("toggle delete: %w", err)
		}
		return Result[R]{Status: Removed, Record: existing}, nil
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return Result[R]{}, fmt.Errorf("toggle find: %w", err)
	}

	created, err := store.Create(ctx, key)
	if err == nil {
		return Result[R]{Status: Created, Record: created}, nil
	}
	if !errors.Is(err, repositories.ErrConflict) {
		return Result[R]{}, fmt.Errorf("toggle create: %w", err)
	}

	// A concurrent request created the same relation first.
	winner, err := store.Find(ctx, key)
	if err != nil {
		return Result[R]{}, fmt.Errorf("toggle reload after conflict: %w", err)
	}
	return Result[R]{Status: Created, Record: winner}, nil
}
