package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
)

type FollowRepository struct {
	col *mongo.Collection
}

func NewFollowRepository(db *mongo.Database) *FollowRepository {
	return &FollowRepository{col: db.Collection(database.FollowsCollection)}
}

func (r *FollowRepository) Create(ctx context.Context, f *models.Follow) (primitive.ObjectID, error) {
	ts := now()
	f.ID = primitive.NilObjectID
	f.CreatedAt, f.UpdatedAt = ts, ts
	f.Normalize()
	id, err := insert(ctx, r.col, f)
	if err != nil {
		return primitive.NilObjectID, err
	}
	f.ID = id
	return id, nil
}

func (r *FollowRepository) FindByUserID(ctx context.Context, userID string) (*models.Follow, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	f, err := findOne[models.Follow](ctx, r.col, bson.M{"user_id": oid})
	return f.Normalize(), err
}

// Add puts otherID on the user's list. Followers and requests exclude each
// other, so adding to one requires absence from both. False means the user has
// no follow document or otherID is already present.
func (r *FollowRepository) Add(ctx context.Context, userID string, list models.FollowList, otherID string) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	other, err := ObjectID("targetId", otherID)
	if err != nil {
		return false, err
	}
	filter := bson.M{"user_id": oid, string(list): bson.M{"$ne": other}}
	switch list {
	case models.FollowersList:
		filter[string(models.RequestsList)] = bson.M{"$ne": other}
	case models.RequestsList:
		filter[string(models.FollowersList)] = bson.M{"$ne": other}
	}
	update := bson.M{
		"$addToSet": bson.M{string(list): other},
		"$set":      bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// Remove pulls otherID from the list. False means it was not present.
func (r *FollowRepository) Remove(ctx context.Context, userID string, list models.FollowList, otherID string) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	other, err := ObjectID("targetId", otherID)
	if err != nil {
		return false, err
	}
	filter := bson.M{"user_id": oid, string(list): other}
	update := bson.M{
		"$pull": bson.M{string(list): other},
		"$set":  bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// ListProfiles joins one of the user's id lists to profiles, paged by the
// profile's (created_at, _id).
func (r *FollowRepository) ListProfiles(ctx context.Context, userID string, list models.FollowList, page pagination.Page) ([]models.Profile, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	profiles, err := aggregate[models.Profile](ctx, r.col, followProfilesPipeline(oid, list, page))
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Normalize()
	}
	return profiles, nil
}

func followProfilesPipeline(userID primitive.ObjectID, list models.FollowList, page pagination.Page) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "ids": "$" + string(list)}}},
		{{Key: "$unwind", Value: "$ids"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.ProfilesCollection,
			"localField":   "ids",
			"foreignField": "user_id",
			"as":           "profile",
		}}},
		{{Key: "$unwind", Value: "$profile"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$profile"}}},
	}
	if after := page.Filter("created_at", "_id"); len(after) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: after}})
	}
	return append(pipeline,
		bson.D{{Key: "$sort", Value: pagination.Sort("created_at", "_id")}},
		bson.D{{Key: "$limit", Value: page.FetchLimit()}},
	)
}
