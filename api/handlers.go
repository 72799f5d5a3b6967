package api

import (
	"github.com/RK62021/Project-Verse/config"
	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, images services.ImageStore, r router) *routeHandlers {
	store := db.ProjectRepo()
	maxLimit := config.GetInt(r.config, "LISTING_MAX_LIMIT", services.DefaultMaxLimit)
	maxUploadBytes := int64(config.GetInt(r.config, "MAX_UPLOAD_MB", 10)) << 20

	return &routeHandlers{
		projectHandler: newProjectHandler(
			services.NewListingService(store, maxLimit),
			services.NewProjectService(store, images),
			db.ProjectTagRepo(),
			maxLimit,
			maxUploadBytes,
		),
		engagementHandler: newEngagementHandler(services.NewEngagementService(store)),
		healthHandler:     newHealthHandler(db, r.startupTime),
	}
}
