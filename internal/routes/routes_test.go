package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/auth"
	"github.com/AnshRaj112/fitcoach-backend/internal/handlers"
)

const userID = "64b7f0f0f0f0f0f0f0f0f0f0"

type stubTokens struct{}

func (stubTokens) ParseAccessToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, apperror.Unauthorized("invalid access token")
	}
	return &auth.Claims{UserID: userID, Type: "access"}, nil
}

type recordingPrograms struct {
	handlers.ProgramService
	calls []string
}

func (p *recordingPrograms) DeleteWeek(_ context.Context, callerID, weekID string) error {
	p.calls = append(p.calls, "week:"+callerID+":"+weekID)
	return nil
}

func (p *recordingPrograms) DeleteProgram(_ context.Context, callerID, programID string) error {
	p.calls = append(p.calls, "program:"+callerID+":"+programID)
	return nil
}

func newRouter(h Handlers, production bool) http.Handler {
	return New(Options{
		Log:            zerolog.Nop(),
		AllowedOrigins: []string{"https://app.example.com"},
		Production:     production,
		AllowedHost:    "api.example.com",
		Tokens:         stubTokens{},
	}, h)
}

func TestRouterAuthAndFallbacks(t *testing.T) {
	router := newRouter(Handlers{}, false)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"api requires token", http.MethodGet, "/api/groups/mine", "", http.StatusUnauthorized, "unauthorized"},
		{"bad token", http.MethodGet, "/api/programs", "nope", http.StatusUnauthorized, "unauthorized"},
		{"me requires token", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized, "unauthorized"},
		{"public login validates body", http.MethodPost, "/api/auth/login", "", http.StatusBadRequest, "bad_request"},
		{"unknown route", http.MethodGet, "/api/teleport", "", http.StatusNotFound, "not_found"},
		{"socket requires token", http.MethodGet, "/ws/notifications", "", http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, r)
			if rec.Code != tt.status {
				t.Fatalf("expected %d got %d: %s", tt.status, rec.Code, rec.Body)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatal("every response should carry a request id")
			}
			if tt.code == "" {
				return
			}
			var body apperror.Body
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Code != tt.code {
				t.Fatalf("expected code %s got %+v", tt.code, body)
			}
		})
	}
}

func TestProgramStaticSegmentsWinOverIDs(t *testing.T) {
	programs := &recordingPrograms{}
	router := newRouter(Handlers{Programs: handlers.ProgramHandler{Programs: programs}}, false)

	for _, path := range []string{"/api/programs/weeks/w1", "/api/programs/p1"} {
		r := httptest.NewRequest(http.MethodDelete, path, nil)
		r.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
	want := []string{"week:" + userID + ":w1", "program:" + userID + ":p1"}
	if len(programs.calls) != 2 || programs.calls[0] != want[0] || programs.calls[1] != want[1] {
		t.Fatalf("expected %v got %v", want, programs.calls)
	}
}

func TestProductionRejectsForeignHost(t *testing.T) {
	router := newRouter(Handlers{}, true)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Host = "evil.example.com"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Host = "api.example.com"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing in production")
	}
}
