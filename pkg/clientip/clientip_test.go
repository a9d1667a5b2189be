package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestResolvers(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote addr", "10.0.0.1:5555", "", "", false, "10.0.0.1"},
		{"headers ignored without trust", "10.0.0.1:5555", "203.0.113.9", "", false, "10.0.0.1"},
		{"left-most forwarded hop", "10.0.0.1:5555", "203.0.113.9, 10.0.0.2", "", true, "203.0.113.9"},
		{"real ip header", "10.0.0.1:5555", "", "198.51.100.4", true, "198.51.100.4"},
		{"garbage header falls back", "10.0.0.1:5555", "not-an-ip", "", true, "10.0.0.1"},
		{"remote without port", "10.0.0.7", "", "", false, "10.0.0.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := New(tt.trustProxy)(r); got != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}
