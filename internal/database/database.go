package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection             = "users"
	ProfilesCollection          = "profiles"
	FollowsCollection           = "follows"
	GroupsCollection            = "groups"
	UserGroupsCollection        = "user_groups"
	EventsCollection            = "events"
	UserEventsCollection        = "user_events"
	ProgramsCollection          = "programs"
	WeeksCollection             = "weeks"
	WorkoutLogsCollection       = "workout_logs"
	NotesCollection             = "notes"
	NutritionProgramsCollection = "nutrition_programs"
	MealsCollection             = "meals"
	MealLogsCollection          = "meal_logs"
)

// Store owns the Mongo client and the application database.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
	log    zerolog.Logger
}

// NewStore wraps an already connected client.
func NewStore(client *mongo.Client, dbName string, log zerolog.Logger) *Store {
	return &Store{Client: client, DB: client.Database(dbName), log: log}
}

// Connect dials Mongo and retries the initial ping with exponential backoff so
// the server can start while the replica set is still electing a primary.
func Connect(ctx context.Context, mongoURI, dbName string, log zerolog.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	log.Info().Str("database", dbName).Msg("connecting to MongoDB")
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, err
	}

	ping := func() error {
		pingCtx, pingCancel := context.WithTimeout(connectCtx, 10*time.Second)
		defer pingCancel()
		return client.Ping(pingCtx, readpref.Primary())
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 25 * time.Second
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("MongoDB ping failed")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, connectCtx), notify); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Msg("connected to MongoDB")
	return NewStore(client, dbName, log), nil
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.DB.Collection(name)
}

// Ping checks the primary is reachable; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Store) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}
