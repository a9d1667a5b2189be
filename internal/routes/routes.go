package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/handlers"
	"github.com/AnshRaj112/fitcoach-backend/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health        handlers.HealthHandler
	Auth          handlers.AuthHandler
	Profiles      handlers.ProfileHandler
	Follows       handlers.FollowHandler
	Groups        handlers.GroupHandler
	Events        handlers.EventHandler
	Programs      handlers.ProgramHandler
	Nutrition     handlers.NutritionHandler
	Notifications handlers.NotificationHandler
}

// Options carries the middleware configuration.
type Options struct {
	Log            zerolog.Logger
	AllowedOrigins []string
	Production     bool
	// AllowedHost is enforced in production when set.
	AllowedHost string
	Tokens      middleware.AccessTokenParser
	// RateLimiter is the Redis limiter used outside production, nil disables it.
	RateLimiter *middleware.RateLimiter
	// GlobalLimiter and LoginLimiter are the in-process limiters used in production.
	GlobalLimiter *middleware.IPLimiter
	LoginLimiter  *middleware.IPLimiter
}

// New builds the router. Middleware order: request logger, CORS, security
// (production) or Redis rate limiting (otherwise), then JWT auth on /api
// groups except the public auth endpoints.
func New(opts Options, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Production {
		global, login := opts.GlobalLimiter, opts.LoginLimiter
		if global == nil {
			global = middleware.GlobalLimiter()
		}
		if login == nil {
			login = middleware.LoginLimiter()
		}
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost, global, login) {
			r.Use(mw)
		}
	} else if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Handler)
	}

	r.Get("/health", h.Health.Handle)
	r.Get("/ws/notifications", h.Notifications.Serve)

	authenticate := middleware.Authenticate(opts.Tokens)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Get("/google", h.Auth.GoogleURL)
		r.Get("/google/callback", h.Auth.GoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
			r.Delete("/me", h.Auth.Deactivate)
			r.Put("/device-token", h.Auth.UpdateDeviceToken)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/api/profiles", func(r chi.Router) {
			r.Get("/", h.Profiles.Search)
			r.Get("/me", h.Profiles.Me)
			r.Patch("/me", h.Profiles.Update)
			r.Post("/me/avatar", h.Profiles.UploadAvatar)
			r.Post("/me/sections", h.Profiles.CreateSection)
			r.Put("/me/sections/{title}", h.Profiles.UpdateSection)
			r.Delete("/me/sections/{title}", h.Profiles.DeleteSection)
			r.Get("/{userID}", h.Profiles.Get)
			r.Get("/{userID}/overview", h.Profiles.Overview)
		})

		r.Route("/api/follows", func(r chi.Router) {
			r.Get("/requests", h.Follows.Requests)
			r.Post("/requests/{userID}/accept", h.Follows.AcceptRequest)
			r.Post("/requests/{userID}/decline", h.Follows.DeclineRequest)
			r.Delete("/followers/{userID}", h.Follows.RemoveFollower)
			r.Post("/{userID}", h.Follows.Follow)
			r.Delete("/{userID}", h.Follows.Unfollow)
			r.Get("/{userID}/followers", h.Follows.Followers)
			r.Get("/{userID}/following", h.Follows.Following)
		})

		r.Route("/api/groups", func(r chi.Router) {
			r.Get("/", h.Groups.Search)
			r.Post("/", h.Groups.Create)
			r.Get("/mine", h.Groups.Mine)
			r.Get("/{groupID}", h.Groups.Get)
			r.Patch("/{groupID}", h.Groups.Update)
			r.Delete("/{groupID}", h.Groups.Delete)
			r.Post("/{groupID}/join", h.Groups.Join)
			r.Post("/{groupID}/leave", h.Groups.Leave)
			r.Post("/{groupID}/requests/{userID}/accept", h.Groups.AcceptRequest)
			r.Post("/{groupID}/requests/{userID}/decline", h.Groups.DeclineRequest)
			r.Delete("/{groupID}/members/{userID}", h.Groups.RemoveMember)
		})

		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", h.Events.Mine)
			r.Post("/", h.Events.Create)
			r.Get("/{eventID}", h.Events.Get)
			r.Patch("/{eventID}", h.Events.Update)
			r.Delete("/{eventID}", h.Events.Delete)
			r.Post("/{eventID}/respond", h.Events.Respond)
			r.Post("/{eventID}/invite", h.Events.Invite)
		})

		r.Route("/api/programs", func(r chi.Router) {
			r.Get("/", h.Programs.List)
			r.Post("/", h.Programs.Create)
			r.Put("/weeks/{weekID}", h.Programs.UpdateWeek)
			r.Delete("/weeks/{weekID}", h.Programs.DeleteWeek)
			r.Delete("/notes/{noteID}", h.Programs.DeleteNote)
			r.Get("/{programID}", h.Programs.Get)
			r.Patch("/{programID}", h.Programs.Update)
			r.Delete("/{programID}", h.Programs.Delete)
			r.Post("/{programID}/weeks", h.Programs.AddWeek)
			r.Get("/{programID}/notes", h.Programs.ListNotes)
			r.Post("/{programID}/notes", h.Programs.AddNote)
		})

		r.Get("/api/workout-logs", h.Programs.ListLogs)
		r.Post("/api/workout-logs", h.Programs.LogWorkout)

		r.Route("/api/nutrition", func(r chi.Router) {
			r.Post("/calculate", h.Nutrition.Calculate)
			r.Get("/programs", h.Nutrition.ListPrograms)
			r.Post("/programs", h.Nutrition.CreateProgram)
			r.Get("/programs/{programID}", h.Nutrition.GetProgram)
			r.Delete("/programs/{programID}", h.Nutrition.DeleteProgram)
			r.Post("/programs/{programID}/phases", h.Nutrition.AddPhase)
			r.Post("/programs/{programID}/phases/{phaseID}/recalculate", h.Nutrition.RecalculatePhase)
		})

		r.Route("/api/meals", func(r chi.Router) {
			r.Get("/", h.Nutrition.ListMeals)
			r.Post("/", h.Nutrition.CreateMeal)
			r.Put("/{mealID}", h.Nutrition.UpdateMeal)
			r.Delete("/{mealID}", h.Nutrition.DeleteMeal)
		})

		r.Get("/api/meal-logs", h.Nutrition.DailyLogs)
		r.Post("/api/meal-logs", h.Nutrition.LogMeal)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"code":"not_found","message":"route not found"}`))
	})
	return r
}
