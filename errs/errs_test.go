package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewDatabaseErrorClassifies(t *testing.T) {
	tests := []struct {
		name       string
		cause      error
		wantStatus int
		wantIs     error
	}{
		{name: "postgres unique", cause: errors.New(`ERROR: duplicate key value violates unique constraint "project_likes_pkey"`), wantStatus: http.StatusConflict, wantIs: ErrAlreadyExists},
		{name: "sqlite unique", cause: errors.New("UNIQUE constraint failed: project_likes.project_id"), wantStatus: http.StatusConflict, wantIs: ErrAlreadyExists},
		{name: "postgres foreign key", cause: errors.New(`insert or update on table "project_views" violates foreign key constraint "fk_projects_view_records"`), wantStatus: http.StatusBadRequest},
		{name: "sqlite foreign key", cause: errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), wantStatus: http.StatusBadRequest},
		{name: "connection", cause: errors.New("dial tcp: connection refused"), wantStatus: http.StatusServiceUnavailable, wantIs: ErrDatabaseConnection},
		{name: "anything else", cause: errors.New("syntax error"), wantStatus: http.StatusInternalServerError, wantIs: ErrDatabaseQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("create", "project", tt.cause)
			if err.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", err.StatusCode, tt.wantStatus)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("%v does not wrap %v", err, tt.wantIs)
			}
			if err.Cause != tt.cause {
				t.Fatalf("cause = %v", err.Cause)
			}
		})
	}
}

func TestUniqueViolationIsAlreadyExists(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: project_tags.id")
	err := NewDatabaseError("create", "project tag", cause)

	want := NewAlreadyExists("project tag")
	if err.StatusCode != want.StatusCode || !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("got %d %v", err.StatusCode, err)
	}
	if err.Error() != "project tag already exists: failed to create project tag" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), want: true},
		{err: errors.New(`violates foreign key constraint "fk_projects_like_records"`), want: true},
		{err: errors.New("UNIQUE constraint failed: project_likes.user_id"), want: false},
		{err: nil, want: false},
	}
	for _, tt := range tests {
		if got := IsForeignKeyViolation(tt.err); got != tt.want {
			t.Errorf("IsForeignKeyViolation(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewDatabaseErrorKeepsApiErr(t *testing.T) {
	notFound := NewNotFound("project")
	wrapped := fmt.Errorf("in transaction: %w", notFound)

	if got := NewDatabaseError("update", "project", wrapped); got != notFound {
		t.Fatalf("got %v, want the original not found error", got)
	}
	if !IsNotFound(NewDatabaseError("update", "project", wrapped)) {
		t.Fatal("not found classification lost")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: NewForbidden("project"), want: http.StatusForbidden},
		{err: fmt.Errorf("wrapped: %w", NewNotFound("project")), want: http.StatusNotFound},
		{err: NewMaxBodySizeExceededError(10), want: http.StatusRequestEntityTooLarge},
		{err: NewUnsupportedMediaTypeError("text/plain", []string{"image/*"}), want: http.StatusUnsupportedMediaType},
		{err: errors.New("plain"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestGetFullErrorFollowsCauses(t *testing.T) {
	inner := NewStorageError("upload image", errors.New("access denied"))
	outer := NewInternalErrorWithCause("create project", inner)

	want := "create project -> object storage failure: upload image -> access denied"
	if got := outer.GetFullError(); got != want {
		t.Fatalf("GetFullError() = %q, want %q", got, want)
	}
}

func TestValidationHelpers(t *testing.T) {
	missing := NewMissingRequiredFieldError("title")
	if missing.Field != "title" || !IsMissingRequiredFieldError(missing) || !IsValidation(missing) {
		t.Fatalf("missing field error = %+v", missing)
	}
	invalid := NewInvalidFieldError("sort", "must be one of newest, oldest, likes, views")
	if !IsInvalidFieldError(invalid) || IsMissingRequiredFieldError(invalid) {
		t.Fatalf("invalid field error = %+v", invalid)
	}
	if !IsValidation(NewBadRequestError("no updates provided")) {
		t.Fatal("bad request should count as validation")
	}
	if IsValidation(NewNotFound("project")) {
		t.Fatal("not found is not a validation error")
	}
}

func TestTokenErrors(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
	}{
		{err: NewMissingTokenError(), check: IsMissingTokenError},
		{err: NewExpiredTokenError(), check: IsExpiredTokenError},
		{err: NewInvalidTokenError(errors.New("bad signature")), check: IsInvalidTokenError},
		{err: NewUnauthorizedError("no user"), check: IsUnauthorized},
		{err: Unauthorized, check: IsUnauthorized},
	}
	for _, tt := range tests {
		if !tt.check(tt.err) || StatusOf(tt.err) != http.StatusUnauthorized {
			t.Errorf("unexpected classification for %v", tt.err)
		}
	}
}
