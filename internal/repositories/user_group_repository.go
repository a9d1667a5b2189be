package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
)

// UserGroupRepository owns each user's "my groups" list.
type UserGroupRepository struct {
	col *mongo.Collection
}

func NewUserGroupRepository(db *mongo.Database) *UserGroupRepository {
	return &UserGroupRepository{col: db.Collection(database.UserGroupsCollection)}
}

func (r *UserGroupRepository) Create(ctx context.Context, ug *models.UserGroups) (primitive.ObjectID, error) {
	ug.ID = primitive.NilObjectID
	ug.UpdatedAt = now()
	ug.Normalize()
	id, err := insert(ctx, r.col, ug)
	if err != nil {
		return primitive.NilObjectID, err
	}
	ug.ID = id
	return id, nil
}

func (r *UserGroupRepository) FindByUserID(ctx context.Context, userID string) (*models.UserGroups, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	ug, err := findOne[models.UserGroups](ctx, r.col, bson.M{"user_id": oid})
	return ug.Normalize(), err
}

// Add records groupID on the user's list. False means the user has no list.
func (r *UserGroupRepository) Add(ctx context.Context, userID string, groupID primitive.ObjectID) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	update := bson.M{"$addToSet": bson.M{"groups": groupID}, "$set": bson.M{"updated_at": now()}}
	return updateOne(ctx, r.col, bson.M{"user_id": oid}, update)
}

func (r *UserGroupRepository) Remove(ctx context.Context, userID string, groupID primitive.ObjectID) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	update := bson.M{"$pull": bson.M{"groups": groupID}, "$set": bson.M{"updated_at": now()}}
	return updateOne(ctx, r.col, bson.M{"user_id": oid}, update)
}

// RemoveFromAll pulls groupID from every listed user's list.
func (r *UserGroupRepository) RemoveFromAll(ctx context.Context, userIDs []primitive.ObjectID, groupID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	filter := bson.M{"user_id": bson.M{"$in": userIDs}}
	update := bson.M{"$pull": bson.M{"groups": groupID}, "$set": bson.M{"updated_at": now()}}
	_, err := r.col.UpdateMany(ctx, filter, update)
	return err
}

// Groups joins the user's list to the group documents.
func (r *UserGroupRepository) Groups(ctx context.Context, userID string) ([]models.Group, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": oid}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.GroupsCollection,
			"localField":   "groups",
			"foreignField": "_id",
			"as":           "group",
		}}},
		{{Key: "$unwind", Value: "$group"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$group"}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	groups, err := aggregate[models.Group](ctx, r.col, pipeline)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].Normalize()
	}
	return groups, nil
}
