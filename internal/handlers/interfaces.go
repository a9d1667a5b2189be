package handlers

import (
	"context"
	"io"
	"time"

	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

// AuthService covers account and session endpoints.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, identifier, password, deviceID string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken, deviceID string) (*services.AuthResult, error)
	Logout(ctx context.Context, userID, deviceID string) error
	OAuthLogin(ctx context.Context, code, deviceID string) (*services.AuthResult, error)
	UpdateDeviceToken(ctx context.Context, userID, token string) error
	Deactivate(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*models.UserResponse, error)
}

// OAuthURLs builds the provider consent URL.
type OAuthURLs interface {
	AuthCodeURL(state string) string
}

type ProfileService interface {
	Get(ctx context.Context, viewerID, userID string) (*models.ProfileResponse, error)
	Update(ctx context.Context, userID string, in services.ProfileUpdate) (*models.ProfileResponse, error)
	CreateSection(ctx context.Context, userID string, sec models.CustomSection) (*models.ProfileResponse, error)
	UpdateSection(ctx context.Context, userID, title string, newTitle *string, items []models.SectionItem) (*models.ProfileResponse, error)
	DeleteSection(ctx context.Context, userID, title string) error
	Overview(ctx context.Context, viewerID, userID string) (*models.ProfileOverview, error)
	UploadAvatar(ctx context.Context, userID string, file io.Reader) (*models.ProfileResponse, error)
	Search(ctx context.Context, query, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error)
}

type FollowService interface {
	Follow(ctx context.Context, callerID, targetID string) (models.FollowStatus, error)
	AcceptRequest(ctx context.Context, callerID, requesterID string) error
	DeclineRequest(ctx context.Context, callerID, requesterID string) error
	Unfollow(ctx context.Context, callerID, targetID string) error
	RemoveFollower(ctx context.Context, callerID, followerID string) error
	Followers(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error)
	Following(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error)
	Requests(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error)
}

type GroupService interface {
	Create(ctx context.Context, ownerID string, in services.GroupInput) (*models.GroupResponse, error)
	Join(ctx context.Context, callerID, groupID string) (models.GroupRole, error)
	AcceptRequest(ctx context.Context, callerID, groupID, userID string) error
	DeclineRequest(ctx context.Context, callerID, groupID, userID string) error
	Leave(ctx context.Context, callerID, groupID string) error
	RemoveMember(ctx context.Context, callerID, groupID, userID string) error
	Update(ctx context.Context, callerID, groupID string, in services.GroupInput, expectedVersion *int64) (*models.GroupResponse, error)
	Delete(ctx context.Context, callerID, groupID string) error
	Get(ctx context.Context, viewerID, groupID string) (*models.GroupResponse, error)
	MyGroups(ctx context.Context, userID string) ([]*models.GroupResponse, error)
	Search(ctx context.Context, viewerID, query, tag string, limit int) ([]*models.GroupResponse, error)
}

type EventService interface {
	Create(ctx context.Context, creatorID string, in services.EventInput) (*models.EventResponse, error)
	Respond(ctx context.Context, userID, eventID, status string) error
	Invite(ctx context.Context, callerID, eventID string, userIDs []string) (*models.EventResponse, error)
	Update(ctx context.Context, callerID, eventID string, in services.EventUpdate, expectedVersion *int64) (*models.EventResponse, error)
	Delete(ctx context.Context, callerID, eventID string) error
	Get(ctx context.Context, viewerID, eventID string) (*models.EventResponse, error)
	MyEvents(ctx context.Context, userID string, from, to *time.Time) ([]*models.EventResponse, error)
}

type ProgramService interface {
	CreateProgram(ctx context.Context, ownerID string, in services.ProgramInput) (*models.Program, error)
	UpdateProgram(ctx context.Context, callerID, programID string, in services.ProgramInput) (*models.Program, error)
	DeleteProgram(ctx context.Context, callerID, programID string) error
	AddWeek(ctx context.Context, callerID, programID string, weekNumber int, workouts []models.Workout) (*models.Week, error)
	UpdateWeek(ctx context.Context, callerID, weekID string, workouts []models.Workout, expectedVersion *int64) (*models.Week, error)
	DeleteWeek(ctx context.Context, callerID, weekID string) error
	GetProgramTree(ctx context.Context, callerID, programID string) (*models.ProgramTree, error)
	ListPrograms(ctx context.Context, ownerID string) ([]models.Program, error)
	AddNote(ctx context.Context, callerID, programID, body string) (*models.Note, error)
	ListNotes(ctx context.Context, callerID, programID, cursor string, limit int) (*pagination.Result[models.Note], error)
	DeleteNote(ctx context.Context, callerID, noteID string) error
}

type WorkoutLogService interface {
	LogWorkout(ctx context.Context, userID string, in services.LogWorkoutInput) (*models.WorkoutLog, error)
	ListLogs(ctx context.Context, userID, programID string, limit int) ([]models.WorkoutLog, error)
}

type NutritionService interface {
	Calculate(ctx context.Context, userID string, b *nutrition.Biometrics, phaseType string, weeklyChange *float64) (nutrition.Plan, error)
	CreateProgram(ctx context.Context, ownerID, name string, phases []services.PhaseInput) (*models.NutritionProgram, error)
	AddPhase(ctx context.Context, callerID, programID string, in services.PhaseInput) (*models.NutritionPhase, error)
	RecalculatePhase(ctx context.Context, callerID, programID, phaseID string) (*models.NutritionPhase, error)
	GetProgram(ctx context.Context, callerID, programID string) (*models.NutritionProgramTree, error)
	ListPrograms(ctx context.Context, ownerID string) ([]models.NutritionProgram, error)
	DeleteProgram(ctx context.Context, callerID, programID string) error
	CreateMeal(ctx context.Context, ownerID, programID, name string, ingredients []nutrition.Ingredient) (*models.MealTemplate, error)
	UpdateMeal(ctx context.Context, callerID, mealID, name string, ingredients []nutrition.Ingredient, expectedVersion *int64) (*models.MealTemplate, error)
	DeleteMeal(ctx context.Context, callerID, mealID string) error
	ListMeals(ctx context.Context, ownerID, programID string) ([]models.MealTemplate, error)
	LogMeal(ctx context.Context, userID, mealID string, servings float64, eatenAt time.Time) (*models.MealLog, error)
	DailyLogs(ctx context.Context, userID, from, to string) ([]models.DailyMealLogs, error)
}
