package services

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 10
	DefaultMaxLimit = 100
)

// ListingParams are the normalised inputs of a project listing.
type ListingParams struct {
	Search string
	Tags   []string
	Page   int
	Limit  int
	Sort   database.ProjectSort
}

// ListingResult is the pagination envelope returned to clients.
type ListingResult struct {
	Projects   []*models.Project `json:"projects"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// ParseListingParams reads search, tags, page, limit and sort from a query
// string. Bad page and limit values fall back to their defaults; an unknown
// sort is rejected.
func ParseListingParams(q url.Values, maxLimit int) (ListingParams, error) {
	params := ListingParams{
		Search: strings.TrimSpace(q.Get("search")),
		Tags:   SplitList(q.Get("tags")),
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}
	if page, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil {
		params.Limit = limit
	}

	sort, ok := database.ParseProjectSort(q.Get("sort"))
	if !ok {
		return ListingParams{}, errs.NewInvalidFieldError("sort", "must be one of newest, oldest, likes, views")
	}
	params.Sort = sort
	return params.normalize(maxLimit), nil
}

func (p ListingParams) normalize(maxLimit int) ListingParams {
	if maxLimit < 1 {
		maxLimit = DefaultMaxLimit
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	// (Page-1)*Limit must fit in an int.
	if maxPage := math.MaxInt / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Sort == "" {
		p.Sort = database.SortNewest
	}
	return p
}

type ListingService struct {
	store    ProjectStore
	maxLimit int
}

func NewListingService(store ProjectStore, maxLimit int) *ListingService {
	if maxLimit < 1 {
		maxLimit = DefaultMaxLimit
	}
	return &ListingService{store: store, maxLimit: maxLimit}
}

// List returns one page of matching projects with pagination metadata.
func (s *ListingService) List(ctx context.Context, params ListingParams) (ListingResult, error) {
	params = params.normalize(s.maxLimit)
	skip := (params.Page - 1) * params.Limit

	page, err := s.store.FindMany(ctx, database.ProjectFilter{
		Search: params.Search,
		Tags:   params.Tags,
	}, skip, params.Limit, params.Sort)
	if err != nil {
		return ListingResult{}, err
	}

	return ListingResult{
		Projects:   page.Projects,
		Total:      page.Total,
		Page:       params.Page,
		TotalPages: totalPages(page.Total, params.Limit),
	}, nil
}

// ListByUser returns every project userID owns or contributed to.
func (s *ListingService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	if userID == uuid.Nil {
		return nil, errs.NewInvalidFieldError("userId", "must be a valid id")
	}
	return s.store.FindByUser(ctx, userID)
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
