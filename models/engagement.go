package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectLike records that a user likes a project. The composite primary key
// keeps each user in the set at most once.
type ProjectLike struct {
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey;index:idx_project_like_user_id"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// ProjectView records the first authenticated view of a project by a user.
type ProjectView struct {
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey;index:idx_project_view_user_id"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	LikesCount int64 `json:"likesCount"`
	Liked      bool  `json:"liked"`
}

// ViewResult is the outcome of recording a view.
type ViewResult struct {
	ViewsCount int64 `json:"viewsCount"`
	Viewed     bool  `json:"viewed"`
}
