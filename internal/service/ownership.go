package service

import (
	"context"
	"errors"
	"fmt"

	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/store"
)

// OwnershipResolver loads a project on behalf of a principal. A project that does
// not exist and one owned by someone else both yield ErrProjectNotFound.
type OwnershipResolver interface {
	Resolve(ctx context.Context, projectID, principalID int64) (*model.Project, error)
}

type ownershipResolver struct {
	projects store.ProjectStore
}

func NewOwnershipResolver(projects store.ProjectStore) OwnershipResolver {
	return &ownershipResolver{projects: projects}
}

func (r *ownershipResolver) Resolve(ctx context.Context, projectID, principalID int64) (*model.Project, error) {
	project, err := r.projects.GetForOwner(ctx, projectID, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("%w: loading project: %w", ErrPersistence, err)
	}

	// the store filters by owner; this guards against a store that does not
	if !project.OwnedBy(principalID) {
		return nil, ErrProjectNotFound
	}

	return project, nil
}
