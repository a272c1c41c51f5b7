package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"projectchat.app/relay/core/db/sqlc"
	"projectchat.app/relay/internal/model"
)

type projectStore struct {
	queries *sqlc.Queries
}

func newProjectStore(queries *sqlc.Queries) ProjectStore {
	return &projectStore{queries: queries}
}

func (s *projectStore) GetForOwner(ctx context.Context, projectID, ownerID int64) (*model.Project, error) {
	row, err := s.queries.GetProjectForOwner(ctx, sqlc.GetProjectForOwnerParams{
		ID:      projectID,
		OwnerID: ownerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	project := toProjectModel(row)
	if oversized := project.OversizedPrompts(); len(oversized) > 0 {
		// written by the project service, which should have enforced the limit
		slog.WarnContext(ctx, "project has prompts over the length limit",
			"project_id", project.ID,
			"prompt_indexes", oversized,
			"limit", model.MaxPromptLength)
	}
	return project, nil
}

func toProjectModel(row sqlc.Project) *model.Project {
	prompts := row.Prompts
	if prompts == nil {
		prompts = []string{}
	}
	files := row.ProviderFiles
	if files == nil {
		files = []string{}
	}
	return &model.Project{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		Name:          row.Name,
		Description:   row.Description,
		Prompts:       prompts,
		ProviderFiles: files,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}
