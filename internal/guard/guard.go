// Package guard enforces that only the owner of a resource may mutate it.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/repositories"
)

// ErrUnauthorized indicates the actor does not own the resource.
var ErrUnauthorized = apperrors.Unauthorized("You are not allowed to modify this resource")

// Owned is implemented by every resource that has a single owning user.
type Owned interface {
	OwnedBy() string
}

// AssertOwner fails with ErrUnauthorized unless actorID owns resource.
func AssertOwner(resource Owned, actorID string) error {
	if actorID == "" || resource.OwnedBy() != actorID {
		return ErrUnauthorized
	}
	return nil
}

// LoadOwned loads the resource identified by id and checks ownership only
// after the lookup has completed. A missing resource yields a NotFound error
// carrying notFoundMsg.
func LoadOwned[T Owned](ctx context.Context, load func(context.Context, string) (T, error), id, actorID, notFoundMsg string) (T, error) {
	var zero T

	resource, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return zero, apperrors.NotFound(notFoundMsg)
		}
		return zero, fmt.Errorf("load resource %s: %w", id, err)
	}

	if err := AssertOwner(resource, actorID); err != nil {
		return zero, err
	}
	return resource, nil
}
