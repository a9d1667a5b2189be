package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
)

// Store interfaces are declared here, where they are consumed. The mongo
// repositories satisfy them.

type UserStore interface {
	Create(ctx context.Context, u *models.User) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByOAuth(ctx context.Context, provider, subject string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, tokenHash string) (*models.User, error)
	LinkOAuth(ctx context.Context, userID string, link models.OAuthLink) (bool, error)
	PutRefreshToken(ctx context.Context, userID string, rt models.RefreshToken) (bool, error)
	RemoveRefreshToken(ctx context.Context, userID, deviceID string) (bool, error)
	SetDeviceToken(ctx context.Context, userID, token string) (bool, error)
	SetActive(ctx context.Context, userID string, active bool) (bool, error)
}

type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) (primitive.ObjectID, error)
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)
	SetAvatar(ctx context.Context, userID, url string) (bool, error)
	AddSection(ctx context.Context, userID string, s models.CustomSection) (bool, error)
	ReplaceSection(ctx context.Context, userID, title string, s models.CustomSection) (bool, error)
	RemoveSection(ctx context.Context, userID, title string) (bool, error)
	Search(ctx context.Context, query string, page pagination.Page) ([]models.Profile, error)
}

type FollowStore interface {
	Create(ctx context.Context, f *models.Follow) (primitive.ObjectID, error)
	FindByUserID(ctx context.Context, userID string) (*models.Follow, error)
	Add(ctx context.Context, userID string, list models.FollowList, otherID string) (bool, error)
	Remove(ctx context.Context, userID string, list models.FollowList, otherID string) (bool, error)
	ListProfiles(ctx context.Context, userID string, list models.FollowList, page pagination.Page) ([]models.Profile, error)
}

type GroupStore interface {
	Create(ctx context.Context, g *models.Group) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	AddToList(ctx context.Context, groupID string, list models.GroupList, userID string) (bool, error)
	RemoveFromList(ctx context.Context, groupID string, list models.GroupList, userID string) (bool, error)
	MoveRequestToMembers(ctx context.Context, groupID, userID string) (bool, error)
	Update(ctx context.Context, groupID string, patch models.GroupPatch, expectedVersion *int64) (*models.Group, error)
	Delete(ctx context.Context, groupID string) (*models.Group, error)
	Search(ctx context.Context, query, tag string, limit int64) ([]models.Group, error)
}

type UserGroupStore interface {
	Create(ctx context.Context, ug *models.UserGroups) (primitive.ObjectID, error)
	FindByUserID(ctx context.Context, userID string) (*models.UserGroups, error)
	Add(ctx context.Context, userID string, groupID primitive.ObjectID) (bool, error)
	Remove(ctx context.Context, userID string, groupID primitive.ObjectID) (bool, error)
	RemoveFromAll(ctx context.Context, userIDs []primitive.ObjectID, groupID primitive.ObjectID) error
	Groups(ctx context.Context, userID string) ([]models.Group, error)
}

type EventStore interface {
	Create(ctx context.Context, e *models.Event) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	AddInvitees(ctx context.Context, eventID primitive.ObjectID, invitees []primitive.ObjectID) (bool, error)
	Update(ctx context.Context, eventID string, patch models.EventPatch, expectedVersion *int64) (*models.Event, error)
	Delete(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error)
}

type UserEventStore interface {
	Create(ctx context.Context, ue *models.UserEvents) (primitive.ObjectID, error)
	FindByUserID(ctx context.Context, userID string) (*models.UserEvents, error)
	AddEvent(ctx context.Context, userID, eventID primitive.ObjectID, status models.EventStatus) (bool, error)
	SetStatus(ctx context.Context, userID, eventID string, status models.EventStatus) (bool, error)
	RemoveEvent(ctx context.Context, userIDs []primitive.ObjectID, eventID primitive.ObjectID) error
	ListEvents(ctx context.Context, userID string, from, to *time.Time) ([]models.UserEventView, error)
}

type ProgramStore interface {
	Create(ctx context.Context, p *models.Program) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Program, error)
	Update(ctx context.Context, id string, patch models.ProgramPatch) (*models.Program, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	PushWeek(ctx context.Context, programID, weekID primitive.ObjectID) (bool, error)
	PullWeek(ctx context.Context, programID, weekID primitive.ObjectID) (bool, error)
	Tree(ctx context.Context, id string) (*models.ProgramTree, error)
}

type WeekStore interface {
	Create(ctx context.Context, w *models.Week) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.Week, error)
	ReplaceWorkouts(ctx context.Context, id string, workouts []models.Workout, expectedVersion *int64) (*models.Week, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error)
}

type WorkoutLogStore interface {
	Create(ctx context.Context, l *models.WorkoutLog) (primitive.ObjectID, error)
	List(ctx context.Context, userID, programID string, limit int64) ([]models.WorkoutLog, error)
}

type NoteStore interface {
	Create(ctx context.Context, n *models.Note) (primitive.ObjectID, error)
	ListByProgram(ctx context.Context, programID string, page pagination.Page) ([]models.Note, error)
	Delete(ctx context.Context, noteID, userID string) (bool, error)
	DeleteByProgram(ctx context.Context, programID primitive.ObjectID) error
}

type NutritionProgramStore interface {
	Create(ctx context.Context, p *models.NutritionProgram) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.NutritionProgram, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.NutritionProgram, error)
	PushPhase(ctx context.Context, programID primitive.ObjectID, phase models.NutritionPhase) (bool, error)
	SetPhaseTargets(ctx context.Context, programID, phaseID primitive.ObjectID, phase models.NutritionPhase) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	Tree(ctx context.Context, id string) (*models.NutritionProgramTree, error)
}

type MealStore interface {
	Create(ctx context.Context, m *models.MealTemplate) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id string) (*models.MealTemplate, error)
	Update(ctx context.Context, id, name string, ingredients []nutrition.Ingredient, expectedVersion *int64) (*models.MealTemplate, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteByProgram(ctx context.Context, programID primitive.ObjectID) error
	ListByOwner(ctx context.Context, ownerID, programID string) ([]models.MealTemplate, error)
}

type MealLogStore interface {
	Create(ctx context.Context, l *models.MealLog) (primitive.ObjectID, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.MealLog, error)
}
