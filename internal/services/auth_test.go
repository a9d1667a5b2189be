package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/auth"
)

func newAuthService(db *memDB, userEvents memUserEvents, google OAuthExchanger) *AuthService {
	userEvents.db = db
	stores := AccountStores{
		Users:      memUsers{db},
		Profiles:   memProfiles{db},
		Follows:    memFollows{db},
		UserGroups: memUserGroups{db: db},
		UserEvents: userEvents,
	}
	tokens := auth.NewTokenManager("test-secret-with-enough-entropy", "fitcoach", 15*time.Minute, 24*time.Hour)
	return NewAuthService(newCoordinator(db), stores, tokens, google, testLogger())
}

func register(t *testing.T, svc *AuthService, username, email string) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: "correct-horse-battery",
		DeviceID: "phone",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res
}

func TestRegisterCreatesEveryUserDocument(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db, memUserEvents{}, nil)

	res := register(t, svc, "runner_01", "runner@example.com")
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("tokens were not issued")
	}
	uid := userOID(res.User.ID)
	if db.profiles[uid] == nil || db.follows[uid] == nil || db.userGroups[uid] == nil || db.userEvents[uid] == nil {
		t.Fatal("registration must create profile, follows, user groups and user events")
	}
	if db.users[uid].PasswordHash == "" || db.users[uid].PasswordHash == "correct-horse-battery" {
		t.Fatal("password must be stored hashed")
	}

	_, err := svc.Register(context.Background(), RegisterInput{Username: "RUNNER_01", Email: "other@example.com", Password: "correct-horse-battery"})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Status != http.StatusConflict || appErr.Code != "duplicate_key" {
		t.Fatalf("duplicate username should be 409 got %v", err)
	}
}

func TestRegisterRollsBackOnSecondaryFailure(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db, memUserEvents{failCreate: true}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "lifter", Email: "lifter@example.com", Password: "correct-horse-battery"})
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "user_events" {
		t.Fatalf("expected user_events step failure got %v", err)
	}
	if len(db.users) != 0 || len(db.profiles) != 0 || len(db.follows) != 0 || len(db.userGroups) != 0 {
		t.Fatal("no account document may survive a failed registration")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(newMemDB(), memUserEvents{}, nil)
	_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "nope", Password: "short"})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Code != "validation_failed" {
		t.Fatalf("expected validation error got %v", err)
	}
	fields, ok := appErr.Details.(apperror.FieldErrors)
	if !ok || len(fields.Fields) != 3 {
		t.Fatalf("expected three field errors got %#v", appErr.Details)
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db, memUserEvents{}, nil)
	ctx := context.Background()
	reg := register(t, svc, "swimmer", "swimmer@example.com")

	if _, err := svc.Login(ctx, "swimmer", "wrong-password", ""); !apperror.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("bad password should be 401 got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "correct-horse-battery", ""); !apperror.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("unknown user should be 401 got %v", err)
	}
	login, err := svc.Login(ctx, "SWIMMER@example.com", "correct-horse-battery", "laptop")
	if err != nil {
		t.Fatalf("login by email: %v", err)
	}

	claims, err := svc.ParseAccessToken(login.Tokens.AccessToken)
	if err != nil || claims.UserID != reg.User.ID {
		t.Fatalf("access token does not identify the user: %+v %v", claims, err)
	}
	if _, err := svc.ParseAccessToken(login.Tokens.RefreshToken); err == nil {
		t.Fatal("refresh token must not be accepted as an access token")
	}

	rotated, err := svc.Refresh(ctx, login.Tokens.RefreshToken, "laptop")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.Tokens.RefreshToken == login.Tokens.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}
	if _, err := svc.Refresh(ctx, login.Tokens.RefreshToken, "laptop"); !apperror.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("rotated token must be rejected got %v", err)
	}
	if _, err := svc.Refresh(ctx, reg.Tokens.RefreshToken, "laptop"); !apperror.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("token presented from another device must be rejected got %v", err)
	}
	if len(db.users[userOID(reg.User.ID)].RefreshTokens) != 2 {
		t.Fatal("expected one refresh record per device")
	}

	if err := svc.Deactivate(ctx, reg.User.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Login(ctx, "swimmer", "correct-horse-battery", ""); !apperror.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("deactivated login should be 403 got %v", err)
	}
	if _, err := svc.Refresh(ctx, rotated.Tokens.RefreshToken, ""); !apperror.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("deactivation must revoke refresh tokens got %v", err)
	}
}

type stubGoogle struct {
	info *auth.GoogleUserInfo
	err  error
}

func (s stubGoogle) Exchange(context.Context, string) (*auth.GoogleUserInfo, error) {
	return s.info, s.err
}

func TestOAuthLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc := newAuthService(newMemDB(), memUserEvents{}, nil)
		if _, err := svc.OAuthLogin(ctx, "code", ""); !apperror.IsStatus(err, http.StatusBadRequest) {
			t.Fatalf("expected 400 got %v", err)
		}
	})

	t.Run("unverified email", func(t *testing.T) {
		google := stubGoogle{info: &auth.GoogleUserInfo{ID: "g-1", Email: "x@example.com"}}
		svc := newAuthService(newMemDB(), memUserEvents{}, google)
		if _, err := svc.OAuthLogin(ctx, "code", ""); !apperror.IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("expected 401 got %v", err)
		}
	})

	t.Run("registers then logs in", func(t *testing.T) {
		db := newMemDB()
		google := stubGoogle{info: &auth.GoogleUserInfo{ID: "g-2", Email: "Jo.Rider@example.com", VerifiedEmail: true, Name: "Jo"}}
		svc := newAuthService(db, memUserEvents{}, google)

		first, err := svc.OAuthLogin(ctx, "code", "")
		if err != nil {
			t.Fatalf("oauth register: %v", err)
		}
		if first.User.Username != "jorider" || first.User.OAuthProvider != "google" {
			t.Fatalf("unexpected user %+v", first.User)
		}
		if db.profiles[userOID(first.User.ID)].DisplayName != "Jo" {
			t.Fatal("display name should come from the google profile")
		}
		second, err := svc.OAuthLogin(ctx, "code", "")
		if err != nil || second.User.ID != first.User.ID {
			t.Fatalf("second login should find the same user: %v", err)
		}
		if len(db.users) != 1 {
			t.Fatalf("expected one user got %d", len(db.users))
		}
	})

	t.Run("links existing email", func(t *testing.T) {
		db := newMemDB()
		google := stubGoogle{info: &auth.GoogleUserInfo{ID: "g-3", Email: "cyclist@example.com", VerifiedEmail: true}}
		svc := newAuthService(db, memUserEvents{}, google)
		reg := register(t, svc, "cyclist", "cyclist@example.com")

		res, err := svc.OAuthLogin(ctx, "code", "")
		if err != nil || res.User.ID != reg.User.ID {
			t.Fatalf("expected link to existing account: %v", err)
		}
		if db.users[userOID(reg.User.ID)].OAuth == nil {
			t.Fatal("oauth link was not stored")
		}
	})
}
