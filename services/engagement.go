package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
)

// EngagementService toggles likes and records unique views for signed-in users.
type EngagementService struct {
	store ProjectStore
}

func NewEngagementService(store ProjectStore) *EngagementService {
	return &EngagementService{store: store}
}

// ToggleLike flips userID's like on a project. Calling it twice restores the
// original state.
func (s *EngagementService) ToggleLike(ctx context.Context, projectID, userID uuid.UUID) (models.LikeResult, error) {
	if userID == uuid.Nil {
		return models.LikeResult{}, errs.Unauthorized
	}
	return s.store.ToggleLike(ctx, projectID, userID)
}

// AddUniqueView counts userID's first view of a project. Later views are
// reported with Viewed false and change nothing.
func (s *EngagementService) AddUniqueView(ctx context.Context, projectID, userID uuid.UUID) (models.ViewResult, error) {
	if userID == uuid.Nil {
		return models.ViewResult{}, errs.Unauthorized
	}
	return s.store.AddView(ctx, projectID, userID)
}
