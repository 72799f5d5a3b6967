package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
)

// TagUsage is a category value and the number of projects carrying it.
type TagUsage struct {
	Value    string `json:"value"`
	Projects int64  `json:"projects" gorm:"column:projects"`
}

type ProjectTagRepo struct {
	db *gorm.DB
}

func NewProjectTagRepo(db *gorm.DB) *ProjectTagRepo {
	return &ProjectTagRepo{db}
}

// FindAll returns every distinct category value, most used first.
func (r *ProjectTagRepo) FindAll(ctx context.Context) ([]TagUsage, error) {
	tags := []TagUsage{}
	err := r.db.WithContext(ctx).
		Model(&models.ProjectTag{}).
		Select("value, COUNT(DISTINCT project_id) AS projects").
		Group("value").
		Order("projects DESC, value ASC").
		Scan(&tags).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "tags", err)
	}
	return tags, nil
}
