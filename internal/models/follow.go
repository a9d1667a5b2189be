package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowList names one of the three id lists on a Follow document.
type FollowList string

const (
	FollowingList FollowList = "following"
	FollowersList FollowList = "followers"
	RequestsList  FollowList = "requests"
)

// Follow holds one user's side of the social graph.
type Follow struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `bson:"user_id"`
	Following []primitive.ObjectID `bson:"following"`
	Followers []primitive.ObjectID `bson:"followers"`
	Requests  []primitive.ObjectID `bson:"requests"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func (f *Follow) Normalize() *Follow {
	if f == nil {
		return nil
	}
	f.Following = emptyIDs(f.Following)
	f.Followers = emptyIDs(f.Followers)
	f.Requests = emptyIDs(f.Requests)
	return f
}

type FollowResponse struct {
	UserID    string   `json:"user_id"`
	Following []string `json:"following"`
	Followers []string `json:"followers"`
	Requests  []string `json:"requests"`
}

func (f *Follow) ToResponse() *FollowResponse {
	if f == nil {
		return nil
	}
	return &FollowResponse{
		UserID:    f.UserID.Hex(),
		Following: HexIDs(f.Following),
		Followers: HexIDs(f.Followers),
		Requests:  HexIDs(f.Requests),
	}
}

// FollowStatus is the relation of a caller to a target after a follow call.
type FollowStatus string

const (
	FollowStatusFollowing FollowStatus = "following"
	FollowStatusRequested FollowStatus = "requested"
)
