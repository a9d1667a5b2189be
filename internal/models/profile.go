package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
)

// Visibility controls who may see a profile or join a group without approval.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Profile is 1:1 with User. Username is denormalized for search.
type Profile struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty"`
	UserID      primitive.ObjectID    `bson:"user_id"`
	Username    string                `bson:"username"`
	DisplayName string                `bson:"display_name"`
	Bio         string                `bson:"bio"`
	AvatarURL   string                `bson:"avatar_url,omitempty"`
	Visibility  Visibility            `bson:"visibility"`
	Biometrics  *nutrition.Biometrics `bson:"biometrics,omitempty"`
	Sections    []CustomSection       `bson:"sections"`
	CreatedAt   time.Time             `bson:"created_at"`
	UpdatedAt   time.Time             `bson:"updated_at"`
}

// CustomSection is a user defined content block; titles are unique per profile.
type CustomSection struct {
	Title string        `bson:"title" json:"title"`
	Items []SectionItem `bson:"items" json:"items"`
}

type SectionItem struct {
	Label  string `bson:"label" json:"label"`
	Detail string `bson:"detail" json:"detail"`
}

func (p *Profile) Normalize() *Profile {
	if p == nil {
		return nil
	}
	if p.Sections == nil {
		p.Sections = []CustomSection{}
	}
	for i := range p.Sections {
		if p.Sections[i].Items == nil {
			p.Sections[i].Items = []SectionItem{}
		}
	}
	return p
}

// Section returns the section with the given title, if any.
func (p *Profile) Section(title string) (CustomSection, bool) {
	for _, s := range p.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return CustomSection{}, false
}

type ProfileResponse struct {
	ID          string                `json:"id"`
	UserID      string                `json:"user_id"`
	Username    string                `json:"username"`
	DisplayName string                `json:"display_name"`
	Bio         string                `json:"bio"`
	AvatarURL   string                `json:"avatar_url,omitempty"`
	Visibility  Visibility            `json:"visibility"`
	Biometrics  *nutrition.Biometrics `json:"biometrics,omitempty"`
	Sections    []CustomSection       `json:"sections"`
	CreatedAt   time.Time             `json:"created_at"`
}

func (p *Profile) ToResponse() *ProfileResponse {
	if p == nil {
		return nil
	}
	p.Normalize()
	return &ProfileResponse{
		ID:          p.ID.Hex(),
		UserID:      p.UserID.Hex(),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Visibility:  p.Visibility,
		Biometrics:  p.Biometrics,
		Sections:    p.Sections,
		CreatedAt:   p.CreatedAt,
	}
}

// PublicResponse strips private details for viewers other than the owner.
func (p *Profile) PublicResponse() *ProfileResponse {
	return p.ToResponse().Public()
}

// Public returns r as seen by someone other than its owner.
func (r *ProfileResponse) Public() *ProfileResponse {
	if r == nil || r.Visibility == VisibilityPublic {
		return r
	}
	out := *r
	out.Bio = ""
	out.Biometrics = nil
	out.Sections = []CustomSection{}
	return &out
}

// ProfileOverview is a profile plus its social counters.
type ProfileOverview struct {
	Profile        *ProfileResponse `json:"profile"`
	FollowerCount  int              `json:"follower_count"`
	FollowingCount int              `json:"following_count"`
	GroupCount     int              `json:"group_count"`
}
