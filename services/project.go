package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
)

const projectImageFolder = "projects"

// CreateProjectInput is a project submission. Technologies and Category may
// hold comma-separated values.
type CreateProjectInput struct {
	Title         string                      `json:"title" validate:"required"`
	Description   string                      `json:"description" validate:"required"`
	RepositoryURL string                      `json:"repositoryUrl" validate:"required,url"`
	LiveDemoURL   string                      `json:"liveDemoUrl" validate:"omitempty,url"`
	Technologies  []string                    `json:"technologies"`
	Category      []string                    `json:"category"`
	Contributors  []models.ProjectContributor `json:"contributors"`
	// ImagePath is a local file to upload as the project image.
	ImagePath string `json:"-"`
}

type ProjectService struct {
	store    ProjectStore
	images   ImageStore
	validate *validator.Validate
}

// NewProjectService wires the lifecycle service. images may be nil, in which
// case submissions carrying an image are rejected.
func NewProjectService(store ProjectStore, images ImageStore) *ProjectService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &ProjectService{store: store, images: images, validate: validate}
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	return s.store.FindByID(ctx, projectID)
}

// Create validates and stores a new project owned by ownerID, uploading its
// image first when one is attached.
func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	if ownerID == uuid.Nil {
		return nil, errs.Unauthorized
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.RepositoryURL = strings.TrimSpace(in.RepositoryURL)
	in.LiveDemoURL = strings.TrimSpace(in.LiveDemoURL)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	project := &models.Project{
		Title:         in.Title,
		Description:   in.Description,
		RepositoryURL: in.RepositoryURL,
		LiveDemoURL:   in.LiveDemoURL,
		Technologies:  SplitList(in.Technologies...),
		Category:      SplitList(in.Category...),
		Contributors:  in.Contributors,
		CreatedBy:     ownerID,
	}

	if in.ImagePath != "" {
		if s.images == nil {
			return nil, errs.NewBadRequestError("image uploads are not enabled")
		}
		url, err := s.images.Upload(ctx, in.ImagePath, projectImageFolder)
		if err != nil {
			return nil, err
		}
		project.ProjectImageURL = url
	}

	stored, err := s.store.Insert(ctx, project)
	if err != nil {
		s.discardImage(ctx, project.ProjectImageURL)
		return nil, err
	}
	log.Info().Str("projectId", stored.ID.String()).Str("owner", ownerID.String()).Msg("Project created")
	return stored, nil
}

// Update applies an allow-listed partial update. Only the owner may update.
func (s *ProjectService) Update(ctx context.Context, requesterID, projectID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	current, err := s.authorize(ctx, requesterID, projectID)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, errs.NewBadRequestError("no updates provided")
	}

	update, err = s.normalizeUpdate(update)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateByID(ctx, projectID, update)
	if err != nil {
		return nil, err
	}

	if update.ProjectImageURL != nil && current.ProjectImageURL != "" && current.ProjectImageURL != updated.ProjectImageURL {
		s.discardImage(ctx, current.ProjectImageURL)
	}
	return updated, nil
}

// Delete removes a project and its stored image. Only the owner may delete.
func (s *ProjectService) Delete(ctx context.Context, requesterID, projectID uuid.UUID) (*models.Project, error) {
	if _, err := s.authorize(ctx, requesterID, projectID); err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.discardImage(ctx, deleted.ProjectImageURL)
	log.Info().Str("projectId", projectID.String()).Msg("Project deleted")
	return deleted, nil
}

func (s *ProjectService) authorize(ctx context.Context, requesterID, projectID uuid.UUID) (*models.Project, error) {
	if requesterID == uuid.Nil {
		return nil, errs.Unauthorized
	}
	project, err := s.store.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnedBy(requesterID) {
		return nil, errs.NewForbidden("project")
	}
	return project, nil
}

func (s *ProjectService) normalizeUpdate(u models.ProjectUpdate) (models.ProjectUpdate, error) {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	u.Title = trim(u.Title)
	u.Description = trim(u.Description)
	u.LiveDemoURL = trim(u.LiveDemoURL)
	u.ProjectImageURL = trim(u.ProjectImageURL)

	if u.Title != nil && *u.Title == "" {
		return u, errs.NewMissingRequiredFieldError("title")
	}
	if u.Description != nil && *u.Description == "" {
		return u, errs.NewMissingRequiredFieldError("description")
	}
	urls := []struct {
		field string
		value *string
	}{
		{"liveDemoUrl", u.LiveDemoURL},
		{"projectImageUrl", u.ProjectImageURL},
	}
	for _, f := range urls {
		if f.value == nil || *f.value == "" {
			continue
		}
		if err := s.validate.Var(*f.value, "url"); err != nil {
			return u, errs.NewInvalidFieldError(f.field, "must be a valid URL")
		}
	}

	if u.Category != nil {
		category := SplitList(*u.Category...)
		u.Category = &category
	}
	if u.Technologies != nil {
		technologies := SplitList(*u.Technologies...)
		u.Technologies = &technologies
	}
	return u, nil
}

// discardImage deletes an uploaded image, logging rather than failing.
func (s *ProjectService) discardImage(ctx context.Context, imageURL string) {
	if s.images == nil || imageURL == "" {
		return
	}
	if err := s.images.Delete(ctx, imageURL); err != nil {
		log.Warn().Err(err).Str("url", imageURL).Msg("Failed to delete project image")
	}
}

// validationError converts the first validator failure into a field error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.NewBadRequestError(err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errs.NewMissingRequiredFieldError(fe.Field())
	case "url":
		return errs.NewInvalidFieldError(fe.Field(), "must be a valid URL")
	default:
		return errs.NewInvalidFieldError(fe.Field(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}
}
