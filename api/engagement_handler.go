package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/services"
)

type engagementHandler struct {
	responder  Responder
	logger     zerolog.Logger
	engagement *services.EngagementService
}

func newEngagementHandler(engagement *services.EngagementService) engagementHandler {
	logger := log.With().Str("handlerName", "engagementHandler").Logger()

	return engagementHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		engagement: engagement,
	}
}

// toggleLike likes the project for the caller, or removes an existing like
// @Summary Toggle like
// @Tags Engagement
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} SuccessResponse{data=models.LikeResult}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectID}/like [post]
func (h engagementHandler) toggleLike() http.HandlerFunc {
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

		result, err := h.engagement.ToggleLike(r.Context(), projectID, userID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "Project unliked"
		if result.Liked {
			message = "Project liked"
		}
		h.responder.WriteSuccess(w, http.StatusOK, message, result)
	}
}

// addView counts the caller's first view of a project
// @Summary Record view
// @Tags Engagement
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} SuccessResponse{data=models.ViewResult}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectID}/view [post]
func (h engagementHandler) addView() http.HandlerFunc {
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

		result, err := h.engagement.AddUniqueView(r.Context(), projectID, userID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "View already counted"
		if result.Viewed {
			message = "View recorded"
		}
		h.responder.WriteSuccess(w, http.StatusOK, message, result)
	}
}
