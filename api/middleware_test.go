package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/RK62021/Project-Verse/database"
	"github.com/RK62021/Project-Verse/database/dbtest"
	"github.com/RK62021/Project-Verse/errs"
)

func TestWriteErrorEnvelope(t *testing.T) {
	responder := NewResponder(zerolog.Nop())

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantField   string
		wantDetails bool
	}{
		{name: "validation", err: errs.NewMissingRequiredFieldError("title"), wantStatus: http.StatusBadRequest, wantField: "title", wantDetails: true},
		{name: "not found", err: errs.NewNotFound("project"), wantStatus: http.StatusNotFound},
		{name: "server side details hidden", err: errs.NewStorageError("upload image", errors.New("secret bucket name")), wantStatus: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			responder.WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Fatalf("content type = %q", ct)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != statusError || body.Message == "" || body.Field != tt.wantField {
				t.Fatalf("body = %+v", body)
			}
			if (body.Details != "") != tt.wantDetails {
				t.Fatalf("details = %q", body.Details)
			}
		})
	}
}

func TestCORSCheckMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
	}{
		{name: "no allow list", allowed: nil, origin: "https://evil.example", method: http.MethodOptions, wantStatus: http.StatusNoContent},
		{name: "allowed origin", allowed: []string{"https://app.example"}, origin: "https://app.example", method: http.MethodOptions, wantStatus: http.StatusNoContent},
		{name: "blocked preflight", allowed: []string{"https://app.example"}, origin: "https://evil.example", method: http.MethodOptions, wantStatus: http.StatusForbidden},
		{name: "blocked origin simple request", allowed: []string{"https://app.example"}, origin: "https://evil.example", method: http.MethodGet, wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/projects", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORSCheckMiddleware(tt.allowed)(next).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestLogInternalServerErrorsRecoversPanics(t *testing.T) {
	handler := LogInternalServerErrors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Status != statusError {
		t.Fatalf("body = %s (%v)", rec.Body.String(), err)
	}
}

func TestCORSPreflightCredentials(t *testing.T) {
	tests := []struct {
		name            string
		acceptedOrigins string
		wantOrigin      string
		wantCredentials string
	}{
		{name: "no allow list", acceptedOrigins: "", wantOrigin: "*", wantCredentials: ""},
		{name: "wildcard entry", acceptedOrigins: "*", wantOrigin: "*", wantCredentials: ""},
		{name: "explicit origin", acceptedOrigins: "https://app.example, https://admin.example", wantOrigin: "https://app.example", wantCredentials: "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := map[string]string{"JWT_SECRET": testSecret, "ACCEPTED_ORIGINS": tt.acceptedOrigins}
			router := newRouter(database.New(dbtest.Open(t)), &fakeImages{}, withConfig(cfg))

			req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
			req.Header.Set("Origin", "https://app.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Fatalf("allow credentials = %q, want %q", got, tt.wantCredentials)
			}
		})
	}
}
