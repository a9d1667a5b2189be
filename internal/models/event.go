package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStatus is a user's standing on an event in their personal list.
type EventStatus string

const (
	EventAdmin     EventStatus = "Admin"
	EventPending   EventStatus = "Pending"
	EventAccepted  EventStatus = "Accepted"
	EventDeclined  EventStatus = "Declined"
	EventTentative EventStatus = "Tentative"
)

// Response reports whether s is a status an invitee may set.
func (s EventStatus) Response() bool {
	return s == EventAccepted || s == EventDeclined || s == EventTentative
}

type Event struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Title     string               `bson:"title"`
	StartsAt  time.Time            `bson:"starts_at"`
	EndsAt    time.Time            `bson:"ends_at"`
	CreatedBy primitive.ObjectID   `bson:"created_by"`
	Admins    []primitive.ObjectID `bson:"admins"`
	Invitees  []primitive.ObjectID `bson:"invitees"`
	Metadata  EventMetadata        `bson:"metadata"`
	Version   int64                `bson:"version"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

type EventMetadata struct {
	Location    string       `bson:"location" json:"location"`
	Description string       `bson:"description" json:"description"`
	Tags        []string     `bson:"tags" json:"tags"`
	Alerts      []EventAlert `bson:"alerts" json:"alerts"`
}

// EventAlert is a reminder some minutes before the event starts.
type EventAlert struct {
	MinutesBefore int    `bson:"minutes_before" json:"minutes_before"`
	Channel       string `bson:"channel" json:"channel"`
}

func (e *Event) Normalize() *Event {
	if e == nil {
		return nil
	}
	e.Admins = emptyIDs(e.Admins)
	e.Invitees = emptyIDs(e.Invitees)
	e.Metadata.Tags = emptyStrings(e.Metadata.Tags)
	if e.Metadata.Alerts == nil {
		e.Metadata.Alerts = []EventAlert{}
	}
	return e
}

// IsAdmin reports whether userID administers the event.
func (e *Event) IsAdmin(userID primitive.ObjectID) bool {
	return ContainsID(e.Admins, userID)
}

// Participants returns admins followed by invitees.
func (e *Event) Participants() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(e.Admins)+len(e.Invitees))
	out = append(out, e.Admins...)
	return append(out, e.Invitees...)
}

// EventRef is one entry in a user's personal event list.
type EventRef struct {
	EventID   primitive.ObjectID `bson:"event_id"`
	Status    EventStatus        `bson:"status"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type UserEvents struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id"`
	Events []EventRef         `bson:"events"`
}

func (u *UserEvents) Normalize() *UserEvents {
	if u == nil {
		return nil
	}
	if u.Events == nil {
		u.Events = []EventRef{}
	}
	return u
}

// UserEventView is an event joined with the viewer's status from their list.
type UserEventView struct {
	Event  `bson:",inline"`
	Status EventStatus `bson:"status"`
}

type EventResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	StartsAt  time.Time     `json:"starts_at"`
	EndsAt    time.Time     `json:"ends_at"`
	CreatedBy string        `json:"created_by"`
	Admins    []string      `json:"admins"`
	Invitees  []string      `json:"invitees"`
	Metadata  EventMetadata `json:"metadata"`
	Version   int64         `json:"version"`
	Status    EventStatus   `json:"status,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (e *Event) ToResponse() *EventResponse {
	if e == nil {
		return nil
	}
	e.Normalize()
	return &EventResponse{
		ID:        e.ID.Hex(),
		Title:     e.Title,
		StartsAt:  e.StartsAt,
		EndsAt:    e.EndsAt,
		CreatedBy: e.CreatedBy.Hex(),
		Admins:    HexIDs(e.Admins),
		Invitees:  HexIDs(e.Invitees),
		Metadata:  e.Metadata,
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
	}
}

func (v *UserEventView) ToResponse() *EventResponse {
	resp := v.Event.ToResponse()
	resp.Status = v.Status
	return resp
}
