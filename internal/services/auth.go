package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/auth"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/pkg/utils"
)

const googleProvider = "google"

type TokenIssuer interface {
	Issue(userID, deviceID string) (auth.TokenPair, error)
	Parse(token, wantType string) (*auth.Claims, error)
}

type OAuthExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GoogleUserInfo, error)
}

// AccountStores are the collections written when an account is created.
type AccountStores struct {
	Users      UserStore
	Profiles   ProfileStore
	Follows    FollowStore
	UserGroups UserGroupStore
	UserEvents UserEventStore
}

type AuthService struct {
	coord  *Coordinator
	stores AccountStores
	tokens TokenIssuer
	google OAuthExchanger
	log    zerolog.Logger
}

// NewAuthService builds the service. google may be nil when OAuth is not configured.
func NewAuthService(coord *Coordinator, stores AccountStores, tokens TokenIssuer, google OAuthExchanger, log zerolog.Logger) *AuthService {
	return &AuthService{coord: coord, stores: stores, tokens: tokens, google: google, log: log}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	DeviceID string
}

type AuthResult struct {
	User   *models.UserResponse `json:"user"`
	Tokens auth.TokenPair       `json:"tokens"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var fields []apperror.FieldError
	for _, err := range []error{
		utils.ValidateUsername(in.Username),
		utils.ValidateEmail(in.Email),
		utils.ValidatePassword(in.Password),
	} {
		var ve *utils.ValidationError
		if errors.As(err, &ve) {
			fields = append(fields, apperror.FieldError{Field: ve.Field, Message: ve.Message})
		}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields...)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password").Wrap(err)
	}

	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.createAccount(ctx, u, ""); err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info().Str("user_id", u.ID.Hex()).Msg("user registered")
	return s.issue(ctx, u, in.DeviceID)
}

// createAccount inserts the user and every per-user document in one
// transaction: profile, group list, follow graph and event list.
func (s *AuthService) createAccount(ctx context.Context, u *models.User, displayName string) error {
	_, err := s.coord.Execute(ctx, "register",
		func(ctx context.Context) (primitive.ObjectID, error) {
			return s.stores.Users.Create(ctx, u)
		},
		func(id primitive.ObjectID) []Step {
			return []Step{
				{Name: "profile", Run: func(ctx context.Context) error {
					_, err := s.stores.Profiles.Create(ctx, &models.Profile{
						UserID:      id,
						Username:    u.Username,
						DisplayName: displayName,
					})
					return err
				}},
				{Name: "user_groups", Run: func(ctx context.Context) error {
					_, err := s.stores.UserGroups.Create(ctx, &models.UserGroups{UserID: id})
					return err
				}},
				{Name: "follows", Run: func(ctx context.Context) error {
					_, err := s.stores.Follows.Create(ctx, &models.Follow{UserID: id})
					return err
				}},
				{Name: "user_events", Run: func(ctx context.Context) error {
					_, err := s.stores.UserEvents.Create(ctx, &models.UserEvents{UserID: id})
					return err
				}},
			}
		},
	)
	return err
}

func (s *AuthService) Login(ctx context.Context, identifier, password, deviceID string) (*AuthResult, error) {
	u, err := s.stores.Users.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if u == nil || u.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("account is deactivated")
	}
	return s.issue(ctx, u, deviceID)
}

// Refresh rotates a refresh token. The old token stops working because the
// record for its device is replaced.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, deviceID string) (*AuthResult, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.RefreshTokenType)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}
	hash := auth.HashToken(refreshToken)
	u, err := s.stores.Users.FindByRefreshToken(ctx, hash)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if u == nil || u.ID.Hex() != claims.UserID {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	var record *models.RefreshToken
	for i := range u.RefreshTokens {
		if u.RefreshTokens[i].TokenHash == hash {
			record = &u.RefreshTokens[i]
			break
		}
	}
	if record == nil || (deviceID != "" && deviceID != record.DeviceID) {
		return nil, apperror.Unauthorized("invalid refresh token")
	}
	if !record.ExpiresAt.After(time.Now()) {
		if _, err := s.stores.Users.RemoveRefreshToken(ctx, u.ID.Hex(), record.DeviceID); err != nil {
			logging.FromContext(ctx, s.log).Warn().Err(err).Msg("failed to drop expired refresh token")
		}
		return nil, apperror.Unauthorized("refresh token expired")
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("account is deactivated")
	}
	return s.issue(ctx, u, record.DeviceID)
}

func (s *AuthService) Logout(ctx context.Context, userID, deviceID string) error {
	if _, err := s.stores.Users.RemoveRefreshToken(ctx, userID, deviceID); err != nil {
		return apperror.Classify(err)
	}
	return nil
}

// OAuthLogin signs in with a Google authorization code. Known subjects log
// in, a verified email matching an account links it, anything else registers.
func (s *AuthService) OAuthLogin(ctx context.Context, code, deviceID string) (*AuthResult, error) {
	if s.google == nil {
		return nil, apperror.BadRequest("google login is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperror.Invalid("code", "Authorization code is required")
	}
	info, err := s.google.Exchange(ctx, code)
	if err != nil {
		logging.FromContext(ctx, s.log).Warn().Err(err).Msg("google code exchange failed")
		return nil, apperror.Unauthorized("google authentication failed")
	}
	if !info.VerifiedEmail {
		return nil, apperror.Unauthorized("google email is not verified")
	}

	u, err := s.stores.Users.FindByOAuth(ctx, googleProvider, info.ID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if u == nil {
		u, err = s.linkOrRegister(ctx, info)
		if err != nil {
			return nil, err
		}
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("account is deactivated")
	}
	return s.issue(ctx, u, deviceID)
}

func (s *AuthService) linkOrRegister(ctx context.Context, info *auth.GoogleUserInfo) (*models.User, error) {
	link := models.OAuthLink{Provider: googleProvider, Subject: info.ID}

	existing, err := s.stores.Users.FindByEmail(ctx, info.Email)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if existing != nil {
		if existing.OAuth != nil {
			return nil, apperror.Conflict("account is linked to another identity")
		}
		matched, err := s.stores.Users.LinkOAuth(ctx, existing.ID.Hex(), link)
		if err := must(matched, err, apperror.Conflict("account is linked to another identity")); err != nil {
			return nil, apperror.Classify(err)
		}
		existing.OAuth = &link
		return existing, nil
	}

	username, err := s.freeUsername(ctx, info.Email)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username: username,
		Email:    info.Email,
		OAuth:    &link,
		IsActive: true,
	}
	if err := s.createAccount(ctx, u, info.Name); err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.log).Info().Str("user_id", u.ID.Hex()).Str("provider", googleProvider).Msg("user registered")
	return u, nil
}

// freeUsername derives a valid unused username from an email's local part.
func (s *AuthService) freeUsername(ctx context.Context, email string) (string, error) {
	base := utils.UsernameFromEmail(email)
	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		u, err := s.stores.Users.FindByLogin(ctx, candidate)
		if err != nil {
			return "", apperror.Classify(err)
		}
		if u == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%04d", base, rand.Intn(10000))
	}
	return "", apperror.Conflict("could not allocate a username")
}

func (s *AuthService) UpdateDeviceToken(ctx context.Context, userID, token string) error {
	matched, err := s.stores.Users.SetDeviceToken(ctx, userID, strings.TrimSpace(token))
	if err := must(matched, err, apperror.NotFound("user", userID)); err != nil {
		return apperror.Classify(err)
	}
	return nil
}

// Deactivate disables the account and revokes every refresh token.
func (s *AuthService) Deactivate(ctx context.Context, userID string) error {
	matched, err := s.stores.Users.SetActive(ctx, userID, false)
	if err := must(matched, err, apperror.NotFound("user", userID)); err != nil {
		return apperror.Classify(err)
	}
	logging.FromContext(ctx, s.log).Info().Str("user_id", userID).Msg("user deactivated")
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	u, err := s.stores.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if u == nil {
		return nil, apperror.NotFound("user", userID)
	}
	return u.ToResponse(), nil
}

// ParseAccessToken is used by the auth middleware and the websocket endpoint.
func (s *AuthService) ParseAccessToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token, auth.AccessTokenType)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, u *models.User, deviceID string) (*AuthResult, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	pair, err := s.tokens.Issue(u.ID.Hex(), deviceID)
	if err != nil {
		return nil, apperror.Internal("failed to issue tokens").Wrap(err)
	}
	matched, err := s.stores.Users.PutRefreshToken(ctx, u.ID.Hex(), models.RefreshToken{
		TokenHash: auth.HashToken(pair.RefreshToken),
		DeviceID:  deviceID,
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err := must(matched, err, apperror.NotFound("user", u.ID.Hex())); err != nil {
		return nil, apperror.Classify(err)
	}
	return &AuthResult{User: u.ToResponse(), Tokens: pair}, nil
}
