package models

import (
	"time"

	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
)

// Patch types carry partial updates: nil fields are left unchanged.

type ProfilePatch struct {
	DisplayName *string
	Bio         *string
	Visibility  *Visibility
	Biometrics  *nutrition.Biometrics
}

func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.Bio == nil && p.Visibility == nil && p.Biometrics == nil
}

type GroupPatch struct {
	Name        *string
	Description *string
	Tags        *[]string
	Visibility  *Visibility
}

func (p GroupPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Tags == nil && p.Visibility == nil
}

type EventPatch struct {
	Title    *string
	StartsAt *time.Time
	EndsAt   *time.Time
	Metadata *EventMetadata
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.StartsAt == nil && p.EndsAt == nil && p.Metadata == nil
}

type ProgramPatch struct {
	Name        *string
	Description *string
	Phases      *[]ProgramPhase
}

func (p ProgramPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Phases == nil
}
