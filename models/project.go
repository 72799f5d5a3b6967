package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is a showcased piece of student work with its engagement counters.
//
// Category, Likes and Views are materialised from their child tables after a
// load; only the child rows are persisted.
type Project struct {
	ID              uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey;not null"`
	Title           string                      `json:"title" gorm:"type:text;not null"`
	Description     string                      `json:"description" gorm:"type:text;not null"`
	Category        []string                    `json:"category" gorm:"-"`
	Technologies    datatypes.JSONSlice[string] `json:"technologies" gorm:"not null"`
	RepositoryURL   string                      `json:"repositoryUrl" gorm:"type:text;not null"`
	LiveDemoURL     string                      `json:"liveDemoUrl,omitempty" gorm:"type:text"`
	ProjectImageURL string                      `json:"projectImageUrl,omitempty" gorm:"type:text"`
	Contributors    []ProjectContributor        `json:"contributors" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedBy       uuid.UUID                   `json:"createdBy" gorm:"type:uuid;not null;index:idx_projects_created_by"`
	Likes           []uuid.UUID                 `json:"likes" gorm:"-"`
	LikesCount      int64                       `json:"likesCount" gorm:"not null;default:0"`
	Views           []uuid.UUID                 `json:"views" gorm:"-"`
	ViewsCount      int64                       `json:"viewsCount" gorm:"not null;default:0"`
	CreatedAt       time.Time                   `json:"createdAt" gorm:"not null;index:idx_projects_created_at"`
	UpdatedAt       time.Time                   `json:"updatedAt" gorm:"not null"`
	SearchText      string                      `json:"-" gorm:"type:text;not null;default:''"`

	Tags        []ProjectTag  `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	LikeRecords []ProjectLike `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	ViewRecords []ProjectView `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// SetCategory replaces the category tag rows, keeping input order and duplicates.
func (p *Project) SetCategory(values []string) {
	p.Category = append([]string{}, values...)
	p.Tags = make([]ProjectTag, len(values))
	for i, v := range values {
		p.Tags[i] = ProjectTag{ProjectID: p.ID, Position: i, Value: v}
	}
}

// SetContributors assigns positions so the stored order matches the input.
func (p *Project) SetContributors(contributors []ProjectContributor) {
	p.Contributors = make([]ProjectContributor, len(contributors))
	for i, c := range contributors {
		c.ID = uuid.Nil
		c.ProjectID = p.ID
		c.Position = i
		p.Contributors[i] = c
	}
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Tags {
		p.Tags[i].ProjectID = p.ID
	}
	for i := range p.Contributors {
		p.Contributors[i].ProjectID = p.ID
	}
	if p.Technologies == nil {
		p.Technologies = datatypes.JSONSlice[string]{}
	}
	p.SearchText = FoldSearchText(p.Title, p.Description)
	return nil
}

// FoldSearchText is the case-folded text that listing search matches
// against, folded with Go's Unicode rules rather than the database's LOWER.
func FoldSearchText(title, description string) string {
	return strings.ToLower(title) + "\n" + strings.ToLower(description)
}

func (p *Project) AfterFind(tx *gorm.DB) error {
	sort.SliceStable(p.Tags, func(i, j int) bool { return p.Tags[i].Position < p.Tags[j].Position })
	sort.SliceStable(p.Contributors, func(i, j int) bool { return p.Contributors[i].Position < p.Contributors[j].Position })

	p.Category = make([]string, len(p.Tags))
	for i, t := range p.Tags {
		p.Category[i] = t.Value
	}
	p.Likes = make([]uuid.UUID, len(p.LikeRecords))
	for i, l := range p.LikeRecords {
		p.Likes[i] = l.UserID
	}
	p.Views = make([]uuid.UUID, len(p.ViewRecords))
	for i, v := range p.ViewRecords {
		p.Views[i] = v.UserID
	}
	if p.Technologies == nil {
		p.Technologies = datatypes.JSONSlice[string]{}
	}
	if p.Contributors == nil {
		p.Contributors = []ProjectContributor{}
	}
	return nil
}

// IsOwnedBy reports whether userID created the project.
func (p *Project) IsOwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.CreatedBy == userID
}
