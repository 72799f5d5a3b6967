package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/models"
)

// ProjectStore is the persistence the services need. *database.ProjectRepo
// implements it.
type ProjectStore interface {
	Insert(ctx context.Context, project *models.Project) (*models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindMany(ctx context.Context, filter database.ProjectFilter, skip, limit int, sort database.ProjectSort) (database.ProjectPage, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	UpdateByID(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ToggleLike(ctx context.Context, projectID, userID uuid.UUID) (models.LikeResult, error)
	AddView(ctx context.Context, projectID, userID uuid.UUID) (models.ViewResult, error)
}

var _ ProjectStore = (*database.ProjectRepo)(nil)

// SplitList turns comma-separated input into trimmed, non-empty values.
// Each element may itself hold several comma-separated values.
func SplitList(values ...string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
