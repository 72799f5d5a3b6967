package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
	"github.com/RK62021/Project-Verse/services"
)

type projectHandler struct {
	responder      Responder
	logger         zerolog.Logger
	listing        *services.ListingService
	projects       *services.ProjectService
	projectTagRepo *database.ProjectTagRepo
	maxLimit       int
	maxUploadBytes int64
}

func newProjectHandler(listing *services.ListingService, projects *services.ProjectService, projectTagRepo *database.ProjectTagRepo, maxLimit int, maxUploadBytes int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		listing:        listing,
		projects:       projects,
		projectTagRepo: projectTagRepo,
		maxLimit:       maxLimit,
		maxUploadBytes: maxUploadBytes,
	}
}

// stringList decodes either a JSON array of strings or a single
// comma-separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = services.SplitList(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("must be a string or an array of strings")
	}
	*l = services.SplitList(many...)
	return nil
}

type createProjectRequest struct {
	Title         string                      `json:"title"`
	Description   string                      `json:"description"`
	RepositoryURL string                      `json:"repositoryUrl"`
	LiveDemoURL   string                      `json:"liveDemoUrl"`
	Technologies  stringList                  `json:"technologies"`
	Category      stringList                  `json:"category"`
	Contributors  []models.ProjectContributor `json:"contributors"`
}

// updateProjectRequest lists every field a client may change.
type updateProjectRequest struct {
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Category        *stringList `json:"category"`
	Technologies    *stringList `json:"technologies"`
	LiveDemoURL     *string     `json:"liveDemoUrl"`
	ProjectImageURL *string     `json:"projectImageUrl"`
}

func (u updateProjectRequest) toModel() models.ProjectUpdate {
	update := models.ProjectUpdate{
		Title:           u.Title,
		Description:     u.Description,
		LiveDemoURL:     u.LiveDemoURL,
		ProjectImageURL: u.ProjectImageURL,
	}
	if u.Category != nil {
		category := []string(*u.Category)
		update.Category = &category
	}
	if u.Technologies != nil {
		technologies := []string(*u.Technologies)
		update.Technologies = &technologies
	}
	return update
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(param)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError(param, "must be a valid id")
	}
	return id, nil
}

// listProjects returns a filtered, paginated page of projects
// @Summary List projects
// @Description Case-insensitive search on title and description, OR filter on category tags
// @Tags Projects
// @Produce json
// @Param search query string false "Substring of title or description"
// @Param tags query string false "Comma-separated category tags"
// @Param page query int false "1-based page number"
// @Param limit query int false "Page size"
// @Param sort query string false "newest, oldest, likes or views"
// @Success 200 {object} SuccessResponse{data=services.ListingResult}
// @Failure 400 {object} ErrorResponse
// @Router /projects [get]
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := services.ParseListingParams(r.URL.Query(), h.maxLimit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.listing.List(r.Context(), params)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "Projects fetched successfully", result)
	}
}

// listTags returns every category tag in use with its project count
// @Summary List tags
// @Tags Projects
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]database.TagUsage}
// @Router /projects/tags [get]
func (h projectHandler) listTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.projectTagRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "Tags fetched successfully", tags)
	}
}

// getProject retrieves a specific project by ID
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} SuccessResponse{data=models.Project}
// @Failure 400 {object} ErrorResponse "Invalid projectID"
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := pathUUID(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Get(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "Project fetched successfully", project)
	}
}

// listUserProjects returns projects a user owns or contributed to
// @Summary List a user's projects
// @Tags Projects
// @Produce json
// @Param userID path string true "User ID" format(uuid)
// @Success 200 {object} SuccessResponse{data=[]models.Project}
// @Failure 400 {object} ErrorResponse "Invalid userID"
// @Router /projects/user/{userID} [get]
func (h projectHandler) listUserProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "userID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		projects, err := h.listing.ListByUser(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "User projects fetched successfully", projects)
	}
}

// createProject creates a project owned by the caller
// @Summary Create project
// @Description Accepts multipart/form-data (with optional projectImage file) or JSON
// @Tags Projects
// @Accept multipart/form-data,json
// @Produce json
// @Success 201 {object} SuccessResponse{data=models.Project}
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Missing or invalid credentials"
// @Router /projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ctxGetUserID(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

		var input services.CreateProjectInput
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			var cleanup func()
			input, cleanup, err = h.readMultipartProject(r)
			if cleanup != nil {
				defer cleanup()
			}
		} else {
			input, err = h.readJSONProject(r)
		}
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Create(r.Context(), userID, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusCreated, "Project created successfully", project)
	}
}

func (h projectHandler) readJSONProject(r *http.Request) (services.CreateProjectInput, error) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.CreateProjectInput{}, decodeError("json", err)
	}
	return services.CreateProjectInput{
		Title:         req.Title,
		Description:   req.Description,
		RepositoryURL: req.RepositoryURL,
		LiveDemoURL:   req.LiveDemoURL,
		Technologies:  req.Technologies,
		Category:      req.Category,
		Contributors:  req.Contributors,
	}, nil
}

// readMultipartProject parses the form and spools an attached image to a
// temp file. The returned cleanup removes that file.
func (h projectHandler) readMultipartProject(r *http.Request) (services.CreateProjectInput, func(), error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return services.CreateProjectInput{}, nil, decodeError("multipart", err)
	}
	defer r.MultipartForm.RemoveAll()

	input := services.CreateProjectInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		RepositoryURL: r.FormValue("repositoryUrl"),
		LiveDemoURL:   r.FormValue("liveDemoUrl"),
		Technologies:  r.MultipartForm.Value["technologies"],
		Category:      r.MultipartForm.Value["category"],
	}

	if raw := strings.TrimSpace(r.FormValue("contributors")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Contributors); err != nil {
			return services.CreateProjectInput{}, nil, errs.NewInvalidFieldError("contributors", "must be a JSON array")
		}
	}

	file, header, err := formImage(r)
	if err != nil {
		return services.CreateProjectInput{}, nil, err
	}
	if file == nil {
		return input, nil, nil
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "project-upload-*")
	if err != nil {
		return services.CreateProjectInput{}, nil, errs.NewInternalErrorWithCause("failed to store upload", err)
	}
	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			h.logger.Warn().Err(err).Str("path", tmp.Name()).Msg("failed to remove temp upload")
		}
	}
	_, copyErr := io.Copy(tmp, file)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		cleanup()
		return services.CreateProjectInput{}, nil, errs.NewInternalErrorWithCause("failed to store upload", errors.Join(copyErr, closeErr))
	}

	h.logger.Debug().Str("filename", header.Filename).Int64("size", header.Size).Msg("received project image")
	input.ImagePath = tmp.Name()
	return input, cleanup, nil
}

// formImage returns the uploaded image from the projectImage field, or the
// image field as a fallback. A nil file means none was sent.
func formImage(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range []string{"projectImage", "image"} {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, nil, errs.NewMalformedPayloadError("multipart", err)
		}
		return file, header, nil
	}
	return nil, nil, nil
}

// updateProject applies an owner's partial update
// @Summary Update project
// @Description Only title, description, category, technologies, liveDemoUrl and projectImageUrl may be changed
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} SuccessResponse{data=models.Project}
// @Failure 400 {object} ErrorResponse "Unknown field or invalid value"
// @Failure 403 {object} ErrorResponse "Caller does not own the project"
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ctxGetUserID(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}
		projectID, err := pathUUID(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		var req updateProjectRequest
		if err := decoder.Decode(&req); err != nil {
			h.responder.WriteError(w, decodeError("json", err))
			return
		}

		project, err := h.projects.Update(r.Context(), userID, projectID, req.toModel())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "Project updated successfully", project)
	}
}

// deleteProject permanently removes an owner's project
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} SuccessResponse{data=models.Project}
// @Failure 403 {object} ErrorResponse "Caller does not own the project"
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ctxGetUserID(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}
		projectID, err := pathUUID(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Delete(r.Context(), userID, projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, http.StatusOK, "Project deleted successfully", project)
	}
}

func decodeError(payloadType string, err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errs.NewMaxBodySizeExceededError(maxErr.Limit)
	}
	if errors.Is(err, io.EOF) {
		return errs.NewBadRequestError("request body is empty")
	}
	if payloadType == "json" {
		return errs.NewInvalidJSONError(err)
	}
	return errs.NewMalformedPayloadError(payloadType, err)
}
