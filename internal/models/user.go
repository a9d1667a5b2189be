package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Username     string     `bson:"username" json:"username"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash,omitempty" json:"-"` // never returned in JSON
	OAuth        *OAuthLink `bson:"oauth,omitempty" json:"-"`
	DeviceToken  string     `bson:"device_token,omitempty" json:"-"`
	IsActive     bool       `bson:"is_active" json:"is_active"`

	// Internal only - one record per device, raw tokens are never stored
	RefreshTokens []RefreshToken `bson:"refresh_tokens" json:"-"`
}

// OAuthLink ties an account to an external identity provider subject.
type OAuthLink struct {
	Provider string `bson:"provider"`
	Subject  string `bson:"subject"`
}

type RefreshToken struct {
	TokenHash string    `bson:"token_hash"`
	DeviceID  string    `bson:"device_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func (u *User) Normalize() *User {
	if u == nil {
		return nil
	}
	if u.RefreshTokens == nil {
		u.RefreshTokens = []RefreshToken{}
	}
	return u
}

// UserResponse is the public shape of a user; credentials never leave the service.
type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	IsActive      bool      `json:"is_active"`
	OAuthProvider string    `json:"oauth_provider,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	if u == nil {
		return nil
	}
	resp := &UserResponse{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.OAuth != nil {
		resp.OAuthProvider = u.OAuth.Provider
	}
	return resp
}
