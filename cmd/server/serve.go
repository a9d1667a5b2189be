package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AnshRaj112/fitcoach-backend/internal/auth"
	"github.com/AnshRaj112/fitcoach-backend/internal/cache"
	"github.com/AnshRaj112/fitcoach-backend/internal/config"
	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/handlers"
	"github.com/AnshRaj112/fitcoach-backend/internal/middleware"
	"github.com/AnshRaj112/fitcoach-backend/internal/realtime"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
	"github.com/AnshRaj112/fitcoach-backend/internal/routes"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
	"github.com/AnshRaj112/fitcoach-backend/pkg/clientip"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if err := store.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURI, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	bus, err := newBus(cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	hub := realtime.NewHub(log)
	go func() {
		if err := bus.Subscribe(ctx, hub.Deliver); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("notification subscriber stopped")
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	h, authSvc := wire(cfg, store, redisClient, bus, hub, tokens, log)

	resolver := clientip.New(cfg.TrustProxy)
	opts := routes.Options{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		AllowedHost:    cfg.AllowedHost,
		Tokens:         authSvc,
	}
	if cfg.IsProduction() {
		opts.GlobalLimiter = middleware.GlobalLimiter().WithResolver(resolver)
		opts.LoginLimiter = middleware.LoginLimiter().WithResolver(resolver)
		go opts.GlobalLimiter.RunCleanup(ctx)
		go opts.LoginLimiter.RunCleanup(ctx)
		log.Info().Msg("production security enabled (security headers, per-IP and login rate limiting)")
	} else {
		opts.RateLimiter = middleware.NewRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitMax, log).WithResolver(resolver)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.New(opts, h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Environment).Msg("fitcoach backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newBus(cfg *config.Config, redisClient *redis.Client, log zerolog.Logger) (realtime.Bus, error) {
	switch cfg.NotifyBackend {
	case "nats":
		bus, err := realtime.ConnectNATS(cfg.NATSURL, cfg.NATSSubjectPrefix, log)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		log.Info().Str("url", cfg.NATSURL).Msg("notifications over NATS")
		return bus, nil
	case "none":
		log.Info().Msg("notifications disabled")
		return realtime.NopBus{}, nil
	default:
		log.Info().Msg("notifications over Redis pub/sub")
		return realtime.NewRedisBus(redisClient, log), nil
	}
}

// wire builds repositories, services and handlers.
func wire(cfg *config.Config, store *database.Store, redisClient *redis.Client, bus realtime.Bus, hub *realtime.Hub, tokens *auth.TokenManager, log zerolog.Logger) (routes.Handlers, *services.AuthService) {
	db := store.DB
	users := repositories.NewUserRepository(db)
	profiles := repositories.NewProfileRepository(db)
	follows := repositories.NewFollowRepository(db)
	groups := repositories.NewGroupRepository(db)
	userGroups := repositories.NewUserGroupRepository(db)
	events := repositories.NewEventRepository(db)
	userEvents := repositories.NewUserEventRepository(db)
	programs := repositories.NewProgramRepository(db)
	weeks := repositories.NewWeekRepository(db)
	notes := repositories.NewNoteRepository(db)
	workoutLogs := repositories.NewWorkoutLogRepository(db)
	nutritionPrograms := repositories.NewNutritionProgramRepository(db)
	meals := repositories.NewMealRepository(db)
	mealLogs := repositories.NewMealLogRepository(db)

	coord := services.NewCoordinator(store, log)

	var google services.OAuthExchanger
	var googleURLs handlers.OAuthURLs
	if cfg.GoogleEnabled() {
		g := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		google, googleURLs = g, g
	} else {
		log.Warn().Msg("google credentials not found, google sign-in disabled")
	}

	var media services.Uploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn().Err(err).Msg("cloudinary unavailable, avatar uploads disabled")
		} else {
			media = cld
		}
	} else {
		log.Warn().Msg("cloudinary credentials not found, avatar uploads disabled")
	}

	authSvc := services.NewAuthService(coord, services.AccountStores{
		Users:      users,
		Profiles:   profiles,
		Follows:    follows,
		UserGroups: userGroups,
		UserEvents: userEvents,
	}, tokens, google, log)
	profileSvc := services.NewProfileService(profiles, follows, userGroups, cache.New(redisClient, cfg.ProfileCacheTTL), media, log)
	followSvc := services.NewFollowService(coord, follows, profiles, bus, log)
	groupSvc := services.NewGroupService(coord, groups, userGroups, bus, log)
	eventSvc := services.NewEventService(coord, events, userEvents, bus, log)
	programSvc := services.NewProgramService(coord, programs, weeks, notes, log)
	logSvc := services.NewWorkoutLogService(programs, weeks, workoutLogs, log)
	nutritionSvc := services.NewNutritionService(coord, nutritionPrograms, meals, mealLogs, profiles, log)

	return routes.Handlers{
		Health:    handlers.HealthHandler{Mongo: store, Redis: redisPinger{redisClient}},
		Auth:      handlers.AuthHandler{Auth: authSvc, OAuth: googleURLs, SecureCookies: cfg.IsProduction()},
		Profiles:  handlers.ProfileHandler{Profiles: profileSvc},
		Follows:   handlers.FollowHandler{Follows: followSvc},
		Groups:    handlers.GroupHandler{Groups: groupSvc},
		Events:    handlers.EventHandler{Events: eventSvc},
		Programs:  handlers.ProgramHandler{Programs: programSvc, Logs: logSvc},
		Nutrition: handlers.NutritionHandler{Nutrition: nutritionSvc},
		Notifications: handlers.NotificationHandler{
			Hub:            hub,
			Tokens:         authSvc,
			AllowedOrigins: cfg.AllowedOrigins,
			Log:            log,
		},
	}, authSvc
}
