package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexSet is the index list for one collection.
type IndexSet struct {
	Collection string
	Models     []mongo.IndexModel
}

func unique(name string) *options.IndexOptions {
	return options.Index().SetName(name).SetUnique(true)
}

// Indexes lists every index the application relies on. Unique indexes back the
// duplicate-key conflicts surfaced to clients.
func Indexes() []IndexSet {
	return []IndexSet{
		{Collection: UsersCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique("username")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("email")},
			{
				Keys: bson.D{{Key: "oauth.provider", Value: 1}, {Key: "oauth.subject", Value: 1}},
				Options: unique("oauth_subject").
					SetPartialFilterExpression(bson.M{"oauth.subject": bson.M{"$exists": true}}),
			},
			{Keys: bson.D{{Key: "refresh_tokens.token_hash", Value: 1}}, Options: options.Index().SetName("refresh_token_hash")},
		}},
		{Collection: ProfilesCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique("user_id")},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("created_at_id")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName("username")},
		}},
		{Collection: FollowsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique("user_id")},
		}},
		{Collection: GroupsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique("slug")},
			{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}, Options: options.Index().SetName("name_text")},
			{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("tags")},
		}},
		{Collection: UserGroupsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique("user_id")},
		}},
		{Collection: EventsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "starts_at", Value: 1}}, Options: options.Index().SetName("starts_at")},
		}},
		{Collection: UserEventsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique("user_id")},
		}},
		{Collection: ProgramsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("owner_created")},
		}},
		{Collection: WeeksCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "program_id", Value: 1}, {Key: "week_number", Value: 1}}, Options: unique("program_week")},
		}},
		{Collection: WorkoutLogsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "performed_at", Value: -1}}, Options: options.Index().SetName("user_performed")},
		}},
		{Collection: NotesCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "program_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("program_created")},
		}},
		{Collection: NutritionProgramsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetName("owner")},
		}},
		{Collection: MealsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "program_id", Value: 1}}, Options: options.Index().SetName("owner_program")},
		}},
		{Collection: MealLogsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "eaten_at", Value: -1}}, Options: options.Index().SetName("user_eaten")},
		}},
	}
}

// EnsureIndexes creates every index. Creating an existing index is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, set := range Indexes() {
		if _, err := s.Collection(set.Collection).Indexes().CreateMany(ctx, set.Models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", set.Collection, err)
		}
		s.log.Debug().Str("collection", set.Collection).Int("count", len(set.Models)).Msg("indexes ensured")
	}
	return nil
}
