package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupRole is a user's position in a group. A user holds at most one.
type GroupRole string

const (
	RoleNone      GroupRole = ""
	RoleOwner     GroupRole = "owner"
	RoleMember    GroupRole = "member"
	RoleRequested GroupRole = "requested"
)

// Group keeps three disjoint membership lists.
type Group struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Slug        string               `bson:"slug"`
	Description string               `bson:"description"`
	Tags        []string             `bson:"tags"`
	Visibility  Visibility           `bson:"visibility"`
	CreatedBy   primitive.ObjectID   `bson:"created_by"`
	Owners      []primitive.ObjectID `bson:"owners"`
	Members     []primitive.ObjectID `bson:"members"`
	Requests    []primitive.ObjectID `bson:"requests"`
	Version     int64                `bson:"version"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (g *Group) Normalize() *Group {
	if g == nil {
		return nil
	}
	g.Tags = emptyStrings(g.Tags)
	g.Owners = emptyIDs(g.Owners)
	g.Members = emptyIDs(g.Members)
	g.Requests = emptyIDs(g.Requests)
	return g
}

// Role returns the list userID appears in.
func (g *Group) Role(userID primitive.ObjectID) GroupRole {
	switch {
	case ContainsID(g.Owners, userID):
		return RoleOwner
	case ContainsID(g.Members, userID):
		return RoleMember
	case ContainsID(g.Requests, userID):
		return RoleRequested
	}
	return RoleNone
}

// GroupList names a membership list field on the group document.
type GroupList string

const (
	GroupOwners   GroupList = "owners"
	GroupMembers  GroupList = "members"
	GroupRequests GroupList = "requests"
)

// UserGroups is a user's "my groups" list, kept in step with group membership.
type UserGroups struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `bson:"user_id"`
	Groups    []primitive.ObjectID `bson:"groups"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func (u *UserGroups) Normalize() *UserGroups {
	if u == nil {
		return nil
	}
	u.Groups = emptyIDs(u.Groups)
	return u
}

type GroupResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Visibility  Visibility `json:"visibility"`
	Owners      []string   `json:"owners"`
	Members     []string   `json:"members"`
	Requests    []string   `json:"requests,omitempty"`
	MemberCount int        `json:"member_count"`
	Version     int64      `json:"version"`
	MyRole      GroupRole  `json:"my_role,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToResponse shapes the group for viewer. Pending requests are only shown to owners.
func (g *Group) ToResponse(viewer primitive.ObjectID) *GroupResponse {
	if g == nil {
		return nil
	}
	g.Normalize()
	role := g.Role(viewer)
	resp := &GroupResponse{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		Slug:        g.Slug,
		Description: g.Description,
		Tags:        g.Tags,
		Visibility:  g.Visibility,
		Owners:      HexIDs(g.Owners),
		Members:     HexIDs(g.Members),
		MemberCount: len(g.Owners) + len(g.Members),
		Version:     g.Version,
		MyRole:      role,
		CreatedAt:   g.CreatedAt,
	}
	if role == RoleOwner {
		resp.Requests = HexIDs(g.Requests)
	}
	return resp
}
