package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectContributor credits someone on a project. UserID is a lookup-only
// reference and may be empty for people without an account.
type ProjectContributor struct {
	ID        uuid.UUID  `json:"-" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID  `json:"-" gorm:"type:uuid;not null;index:idx_project_contributor_project_id"`
	Position  int        `json:"-" gorm:"not null"`
	UserID    *uuid.UUID `json:"userId,omitempty" gorm:"type:uuid;index:idx_project_contributor_user_id"`
	Role      string     `json:"role,omitempty" gorm:"type:text"`
	Name      string     `json:"name,omitempty" gorm:"type:text"`
}

func (c *ProjectContributor) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
