package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectTag is one entry of a project's category list.
type ProjectTag struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index:idx_project_tag_project_id"`
	Position  int       `json:"position" gorm:"not null"`
	Value     string    `json:"value" gorm:"type:text;not null;index:idx_project_tag_value"`
}

func (t *ProjectTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
