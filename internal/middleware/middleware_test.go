package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/auth"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{headerXContentTypeOptions, headerXFrameOptions, headerStrictTransportSecurity, headerReferrerPolicy} {
		if rec.Header().Get(h) == "" {
			t.Fatalf("missing header %s", h)
		}
	}
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.example.com")(okHandler)
	tests := []struct {
		host string
		want int
	}{
		{"api.example.com", http.StatusOK},
		{"API.example.com:443", http.StatusOK},
		{"evil.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != tt.want {
			t.Fatalf("host %s: expected %d got %d", tt.host, tt.want, rec.Code)
		}
	}
}

func TestIPLimiterBurstPerIP(t *testing.T) {
	l := NewIPLimiter(rate.Every(time.Hour), 2, "slow down")
	h := l.Handler(okHandler)

	codes := func(remote string, n int) []int {
		var out []int
		for i := 0; i < n; i++ {
			r := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
			r.RemoteAddr = remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			out = append(out, rec.Code)
		}
		return out
	}

	got := codes("10.0.0.1:1000", 3)
	if got[0] != http.StatusOK || got[1] != http.StatusOK || got[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", got)
	}
	if other := codes("10.0.0.2:1000", 1); other[0] != http.StatusOK {
		t.Fatal("limits must be tracked per ip")
	}

	if removed := l.Cleanup(time.Now().Add(2 * limiterTTL)); removed != 2 {
		t.Fatalf("expected 2 idle buckets removed got %d", removed)
	}
}

func TestLoginLimiterOnlyGuardsCredentialPaths(t *testing.T) {
	h := LoginLimiter().Handler(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("non-login path limited on request %d", i)
		}
	}

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third login attempt should be limited got %d", last)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	rec := httptest.NewRecorder()
	NewRateLimiter(client, time.Minute, 1, zerolog.Nop()).Handler(okHandler).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("redis outage must not block traffic, got %d", rec.Code)
	}
}

type stubParser struct{}

func (stubParser) ParseAccessToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	return &auth.Claims{UserID: "64b7f0f0f0f0f0f0f0f0f0f0"}, nil
}

func TestAuthenticate(t *testing.T) {
	var seen string
	h := Authenticate(stubParser{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, http.StatusOK},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=good" }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil)
			tt.setup(r)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusOK && seen != "64b7f0f0f0f0f0f0f0f0f0f0" {
				t.Fatalf("user id not on context: %q", seen)
			}
			if tt.want != http.StatusOK {
				var body apperror.Body
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Code != "unauthorized" {
					t.Fatalf("unexpected body %+v %v", body, err)
				}
			}
		})
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	var requestID string
	h := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestIDFromContext(r.Context())
		panic(errors.New("boom"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if requestID == "" || rec.Header().Get(requestIDHeader) != requestID {
		t.Fatalf("request id not propagated: ctx=%q header=%q", requestID, rec.Header().Get(requestIDHeader))
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) || !bytes.Contains(buf.Bytes(), []byte(requestID)) {
		t.Fatalf("panic not logged with request id: %s", buf.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler)

	r := httptest.NewRequest(http.MethodOptions, "/api/groups", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allowed origin not echoed: %v", rec.Header())
	}

	r = httptest.NewRequest(http.MethodGet, "/api/groups", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}
