package services_test

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/database/dbtest"
	"github.com/RK62021/Project-Verse/errs"
	"github.com/RK62021/Project-Verse/models"
	"github.com/RK62021/Project-Verse/services"
)

func newStore(t *testing.T) *database.ProjectRepo {
	t.Helper()
	return database.NewProjectRepo(dbtest.Open(t))
}

func seed(t *testing.T, store services.ProjectStore, owner uuid.UUID, title, description string, category ...string) *models.Project {
	t.Helper()
	p, err := store.Insert(context.Background(), &models.Project{
		Title:         title,
		Description:   description,
		RepositoryURL: "https://github.com/example/repo",
		Category:      category,
		CreatedBy:     owner,
	})
	if err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
	return p
}

func TestParseListingParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  services.ListingParams
	}{
		{
			name:  "defaults",
			query: "",
			want:  services.ListingParams{Tags: []string{}, Page: 1, Limit: 10, Sort: database.SortNewest},
		},
		{
			name:  "all parameters",
			query: "search=+AI+&tags=AI,%20Mobile,,&page=2&limit=5&sort=likes",
			want:  services.ListingParams{Search: "AI", Tags: []string{"AI", "Mobile"}, Page: 2, Limit: 5, Sort: database.SortMostLiked},
		},
		{
			name:  "page floored at one",
			query: "page=-3",
			want:  services.ListingParams{Tags: []string{}, Page: 1, Limit: 10, Sort: database.SortNewest},
		},
		{
			name:  "non numeric values fall back",
			query: "page=abc&limit=xyz",
			want:  services.ListingParams{Tags: []string{}, Page: 1, Limit: 10, Sort: database.SortNewest},
		},
		{
			name:  "zero limit falls back",
			query: "limit=0",
			want:  services.ListingParams{Tags: []string{}, Page: 1, Limit: 10, Sort: database.SortNewest},
		},
		{
			name:  "limit capped",
			query: "limit=1000",
			want:  services.ListingParams{Tags: []string{}, Page: 1, Limit: 50, Sort: database.SortNewest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, err := services.ParseListingParams(q, 50)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fmt.Sprintf("%+v", got) != fmt.Sprintf("%+v", tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseListingParamsRejectsUnknownSort(t *testing.T) {
	_, err := services.ParseListingParams(url.Values{"sort": {"trending"}}, 100)
	if !errs.IsInvalidFieldError(err) {
		t.Fatalf("expected invalid field error, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{in: nil, want: "[]"},
		{in: []string{""}, want: "[]"},
		{in: []string{"Go, React ,,Postgres"}, want: "[Go React Postgres]"},
		{in: []string{"Go", " AI , ML"}, want: "[Go AI ML]"},
		{in: []string{"Web,Web"}, want: "[Web Web]"},
	}
	for _, tt := range tests {
		if got := fmt.Sprint(services.SplitList(tt.in...)); got != tt.want {
			t.Fatalf("SplitList(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestListingServicePagination(t *testing.T) {
	store := newStore(t)
	owner := uuid.New()
	for i := 0; i < 25; i++ {
		seed(t, store, owner, fmt.Sprintf("Project %d", i), "desc")
	}
	listing := services.NewListingService(store, 100)

	tests := []struct {
		page    int
		wantLen int
	}{
		{page: 1, wantLen: 10},
		{page: 2, wantLen: 10},
		{page: 3, wantLen: 5},
		{page: 4, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			res, err := listing.List(context.Background(), services.ListingParams{Page: tt.page, Limit: 10})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(res.Projects) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(res.Projects), tt.wantLen)
			}
			if res.Total != 25 || res.TotalPages != 3 || res.Page != tt.page {
				t.Fatalf("envelope = total %d pages %d page %d", res.Total, res.TotalPages, res.Page)
			}
		})
	}

	farPages := []struct {
		name  string
		query url.Values
	}{
		{name: "page near int64 max", query: url.Values{"page": {"922337203685477581"}, "limit": {"100"}}},
		{name: "max int page", query: url.Values{"page": {fmt.Sprint(math.MaxInt)}, "limit": {"10"}}},
	}
	for _, tt := range farPages {
		t.Run(tt.name, func(t *testing.T) {
			params, err := services.ParseListingParams(tt.query, 100)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			res, err := listing.List(context.Background(), params)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(res.Projects) != 0 {
				t.Fatalf("page %d returned %d projects, want none", res.Page, len(res.Projects))
			}
			if res.Total != 25 || res.Page <= res.TotalPages {
				t.Fatalf("envelope = total %d pages %d page %d", res.Total, res.TotalPages, res.Page)
			}
		})
	}
}

func TestListingServiceFilters(t *testing.T) {
	store := newStore(t)
	owner := uuid.New()
	seed(t, store, owner, "AI Tutor", "Homework helper", "AI")
	seed(t, store, owner, "Recipe Box", "Uses AI for meals", "Mobile")
	seed(t, store, owner, "Budget", "Spending tracker", "Mobile")
	seed(t, store, owner, "Robot", "Hardware", "Robotics")
	listing := services.NewListingService(store, 100)

	tests := []struct {
		name   string
		params services.ListingParams
		want   int64
	}{
		{name: "search", params: services.ListingParams{Search: "ai"}, want: 2},
		{name: "tags or", params: services.ListingParams{Tags: []string{"AI", "Mobile"}}, want: 3},
		{name: "search and tags", params: services.ListingParams{Search: "AI", Tags: []string{"Mobile"}}, want: 1},
		{name: "nothing", params: services.ListingParams{Search: "quantum"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := listing.List(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if res.Total != tt.want || int64(len(res.Projects)) != tt.want {
				t.Fatalf("total %d len %d, want %d", res.Total, len(res.Projects), tt.want)
			}
			if tt.want == 0 && (res.TotalPages != 0 || res.Projects == nil) {
				t.Fatalf("empty result = %+v", res)
			}
		})
	}
}

func TestListByUser(t *testing.T) {
	store := newStore(t)
	owner := uuid.New()
	seed(t, store, owner, "Mine", "d")
	seed(t, store, uuid.New(), "Theirs", "d")
	listing := services.NewListingService(store, 100)

	projects, err := listing.ListByUser(context.Background(), owner)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(projects) != 1 || projects[0].Title != "Mine" {
		t.Fatalf("projects = %v", projects)
	}

	if _, err := listing.ListByUser(context.Background(), uuid.Nil); !errs.IsInvalidFieldError(err) {
		t.Fatalf("expected invalid field error, got %v", err)
	}
}
