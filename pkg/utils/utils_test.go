package utils

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ok, err := VerifyPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	ok, err = VerifyPassword("wrong horse", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got %v %v", ok, err)
	}
	if _, err := VerifyPassword("x", "$bcrypt$nope"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash got %v", err)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		field string
	}{
		{"short username", ValidateUsername("ab"), "username"},
		{"long username", ValidateUsername("abcdefghijklmnopqrstu"), "username"},
		{"bad chars", ValidateUsername("sam!"), "username"},
		{"leading underscore", ValidateUsername("_sam"), "username"},
		{"good username", ValidateUsername("sam_99"), ""},
		{"empty email", ValidateEmail(""), "email"},
		{"no domain dot", ValidateEmail("sam@localhost"), "email"},
		{"display name", ValidateEmail("Sam <sam@example.com>"), "email"},
		{"good email", ValidateEmail("sam@example.com"), ""},
		{"short password", ValidatePassword("1234567"), "password"},
		{"good password", ValidatePassword("12345678"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field == "" {
				if tt.err != nil {
					t.Fatalf("unexpected error %v", tt.err)
				}
				return
			}
			ve, ok := tt.err.(*ValidationError)
			if !ok || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s got %v", tt.field, tt.err)
			}
		})
	}
}

func TestUsernameFromEmail(t *testing.T) {
	tests := map[string]string{
		"Jo.Rider@example.com":              "jorider",
		"a@example.com":                     "usera",
		"__x__@example.com":                 "userx",
		"averyveryverylongname@example.com": "averyveryverylo",
	}
	for email, want := range tests {
		got := UsernameFromEmail(email)
		if got != want {
			t.Errorf("%s: expected %q got %q", email, want, got)
		}
		if err := ValidateUsername(got); err != nil {
			t.Errorf("%s: derived username %q is invalid: %v", email, got, err)
		}
	}
}
