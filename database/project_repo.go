package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
)

// ProjectSort names a listing order.
type ProjectSort string

const (
	SortNewest     ProjectSort = "newest"
	SortOldest     ProjectSort = "oldest"
	SortMostLiked  ProjectSort = "likes"
	SortMostViewed ProjectSort = "views"
)

// ParseProjectSort accepts the empty string as SortNewest.
func ParseProjectSort(s string) (ProjectSort, bool) {
	switch ProjectSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, true
	case SortOldest:
		return SortOldest, true
	case SortMostLiked:
		return SortMostLiked, true
	case SortMostViewed:
		return SortMostViewed, true
	}
	return "", false
}

func (s ProjectSort) orderBy() string {
	switch s {
	case SortOldest:
		return "created_at ASC, id ASC"
	case SortMostLiked:
		return "likes_count DESC, created_at DESC, id DESC"
	case SortMostViewed:
		return "views_count DESC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// ProjectFilter narrows FindMany. Zero values match everything.
type ProjectFilter struct {
	// Search is matched case-insensitively as a substring of title or description.
	Search string
	// Tags matches projects carrying any of the values in their category.
	Tags []string
}

// ProjectPage is one page of a listing plus the total number of matches.
type ProjectPage struct {
	Projects []*models.Project
	Total    int64
}

type ProjectRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of the repo that stamps records using now.
func (r *ProjectRepo) WithClock(now func() time.Time) *ProjectRepo {
	return &ProjectRepo{db: r.db, now: now}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *ProjectRepo) GetDB() *gorm.DB {
	return r.db
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Contributors", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("LikeRecords", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("ViewRecords", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func findProject(db *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := db.Scopes(withAssociations).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Insert stores a new project with its category and contributor rows. The
// id, timestamps and counters of the argument are overwritten.
func (r *ProjectRepo) Insert(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := validateNewProject(project); err != nil {
		return nil, err
	}

	now := r.now()
	project.ID = uuid.New()
	project.CreatedAt, project.UpdatedAt = now, now
	project.LikesCount, project.ViewsCount = 0, 0
	project.LikeRecords, project.ViewRecords = nil, nil
	project.SetCategory(project.Category)
	project.SetContributors(project.Contributors)

	var stored *models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		var err error
		stored, err = findProject(tx, project.ID)
		return err
	})
	if err != nil {
		return nil, errs.NewDatabaseError("create", "project", err)
	}
	return stored, nil
}

// FindByID returns a project with its tags, contributors, likes and views.
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := findProject(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	return project, nil
}

func (r *ProjectRepo) filtered(ctx context.Context, filter ProjectFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Project{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		db = db.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
	}
	if len(filter.Tags) > 0 {
		tagged := r.db.WithContext(ctx).Model(&models.ProjectTag{}).Select("project_id").Where("value IN ?", filter.Tags)
		db = db.Where("id IN (?)", tagged)
	}
	return db
}

// FindMany returns the requested page and the count of all matches. Both
// queries run concurrently.
func (r *ProjectRepo) FindMany(ctx context.Context, filter ProjectFilter, skip, limit int, sort ProjectSort) (ProjectPage, error) {
	if limit < 1 {
		return ProjectPage{}, errs.NewInvalidFieldError("limit", "must be a positive integer")
	}
	if skip < 0 {
		return ProjectPage{}, errs.NewInvalidFieldError("skip", "must not be negative")
	}

	var page ProjectPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.filtered(gctx, filter).Count(&page.Total).Error
	})
	g.Go(func() error {
		var projects []*models.Project
		err := r.filtered(gctx, filter).
			Scopes(withAssociations).
			Order(sort.orderBy()).
			Offset(skip).
			Limit(limit).
			Find(&projects).Error
		page.Projects = projects
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectPage{}, errs.NewDatabaseError("list", "projects", err)
	}
	if page.Projects == nil {
		page.Projects = []*models.Project{}
	}
	return page, nil
}

// FindByUser returns projects created by userID or crediting userID as a
// contributor, newest first.
func (r *ProjectRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	contributed := r.db.WithContext(ctx).Model(&models.ProjectContributor{}).Select("project_id").Where("user_id = ?", userID)

	projects := []*models.Project{}
	err := r.db.WithContext(ctx).
		Scopes(withAssociations).
		Where("created_by = ? OR id IN (?)", userID, contributed).
		Order(SortNewest.orderBy()).
		Find(&projects).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

// UpdateByID applies the non-nil fields of update and refreshes updatedAt.
func (r *ProjectRepo) UpdateByID(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	columns := map[string]interface{}{"updated_at": r.now()}
	if update.Title != nil {
		columns["title"] = *update.Title
	}
	if update.Description != nil {
		columns["description"] = *update.Description
	}
	if update.Technologies != nil {
		columns["technologies"] = datatypes.JSONSlice[string](append([]string{}, *update.Technologies...))
	}
	if update.LiveDemoURL != nil {
		columns["live_demo_url"] = *update.LiveDemoURL
	}
	if update.ProjectImageURL != nil {
		columns["project_image_url"] = *update.ProjectImageURL
	}

	var updated *models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).Where("id = ?", id).Updates(columns)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("project")
		}

		if update.Title != nil || update.Description != nil {
			var current models.Project
			if err := tx.Select("title", "description").Where("id = ?", id).Take(&current).Error; err != nil {
				return err
			}
			folded := models.FoldSearchText(current.Title, current.Description)
			if err := tx.Model(&models.Project{}).Where("id = ?", id).UpdateColumn("search_text", folded).Error; err != nil {
				return err
			}
		}

		if update.Category != nil {
			if err := tx.Where("project_id = ?", id).Delete(&models.ProjectTag{}).Error; err != nil {
				return err
			}
			holder := models.Project{ID: id}
			holder.SetCategory(*update.Category)
			if len(holder.Tags) > 0 {
				if err := tx.Create(&holder.Tags).Error; err != nil {
					return err
				}
			}
		}

		var err error
		updated, err = findProject(tx, id)
		return err
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update", "project", err)
	}
	return updated, nil
}

// DeleteByID permanently removes a project and its child rows and returns
// the record as it was before deletion.
func (r *ProjectRepo) DeleteByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var deleted *models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx, id)
		if err != nil {
			return err
		}

		children := []interface{}{&models.ProjectLike{}, &models.ProjectView{}, &models.ProjectTag{}, &models.ProjectContributor{}}
		for _, child := range children {
			if err := tx.Where("project_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("project")
		}
		deleted = project
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("delete", "project", err)
	}
	return deleted, nil
}

// ToggleLike adds userID to the project's likes, or removes it when already
// present, and moves likesCount by one in the same transaction.
func (r *ProjectRepo) ToggleLike(ctx context.Context, projectID, userID uuid.UUID) (models.LikeResult, error) {
	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()

		// Touching the row first takes its write lock for the rest of the transaction.
		res := tx.Model(&models.Project{}).Where("id = ?", projectID).Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("project")
		}

		removed := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectLike{})
		if removed.Error != nil {
			return removed.Error
		}

		delta := 0
		if removed.RowsAffected > 0 {
			result.Liked = false
			delta = -1
		} else {
			added := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.ProjectLike{ProjectID: projectID, UserID: userID, CreatedAt: now})
			if added.Error != nil {
				return added.Error
			}
			result.Liked = true
			if added.RowsAffected > 0 {
				delta = 1
			}
		}

		if delta != 0 {
			if err := adjustCounter(tx, projectID, "likes_count", delta, nil); err != nil {
				return err
			}
		}
		return readCounter(tx, projectID, "likes_count", &result.LikesCount)
	})
	if err != nil {
		return models.LikeResult{}, errs.NewDatabaseError("toggle like on", "project", err)
	}
	return result, nil
}

// AddView records the first view of a project by userID. Repeat views leave
// the record untouched and report Viewed false.
func (r *ProjectRepo) AddView(ctx context.Context, projectID, userID uuid.UUID) (models.ViewResult, error) {
	var result models.ViewResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Hold the row so a concurrent delete waits for this transaction.
		var found []uuid.UUID
		err := tx.Model(&models.Project{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", projectID).
			Limit(1).
			Pluck("id", &found).Error
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return errs.NewNotFound("project")
		}

		now := r.now()
		added := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProjectView{ProjectID: projectID, UserID: userID, CreatedAt: now})
		if errs.IsForeignKeyViolation(added.Error) {
			return errs.NewNotFound("project")
		}
		if added.Error != nil {
			return added.Error
		}

		result.Viewed = added.RowsAffected > 0
		if result.Viewed {
			if err := adjustCounter(tx, projectID, "views_count", 1, &now); err != nil {
				return err
			}
		}
		return readCounter(tx, projectID, "views_count", &result.ViewsCount)
	})
	if err != nil {
		return models.ViewResult{}, errs.NewDatabaseError("record view on", "project", err)
	}
	return result, nil
}

// adjustCounter moves a counter column by one. Decrements never go below zero.
func adjustCounter(tx *gorm.DB, projectID uuid.UUID, column string, delta int, touchedAt *time.Time) error {
	expr := gorm.Expr(column + " + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
	}
	columns := map[string]interface{}{column: expr}
	if touchedAt != nil {
		columns["updated_at"] = *touchedAt
	}
	return tx.Model(&models.Project{}).Where("id = ?", projectID).UpdateColumns(columns).Error
}

func readCounter(tx *gorm.DB, projectID uuid.UUID, column string, dest *int64) error {
	return tx.Model(&models.Project{}).Select(column).Where("id = ?", projectID).Scan(dest).Error
}

func validateNewProject(p *models.Project) error {
	required := []struct {
		field string
		value string
	}{
		{"title", p.Title},
		{"description", p.Description},
		{"repositoryUrl", p.RepositoryURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errs.NewMissingRequiredFieldError(r.field)
		}
	}
	if p.CreatedBy == uuid.Nil {
		return errs.NewMissingRequiredFieldError("createdBy")
	}
	return nil
}

func validateUpdate(u models.ProjectUpdate) error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return errs.NewMissingRequiredFieldError("title")
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return errs.NewMissingRequiredFieldError("description")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
