package repositories

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
)

type GroupRepository struct {
	col *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{col: db.Collection(database.GroupsCollection)}
}

func (r *GroupRepository) Create(ctx context.Context, g *models.Group) (primitive.ObjectID, error) {
	ts := now()
	g.ID = primitive.NilObjectID
	g.CreatedAt, g.UpdatedAt = ts, ts
	g.Version = 1
	g.Normalize()
	id, err := insert(ctx, r.col, g)
	if err != nil {
		return primitive.NilObjectID, err
	}
	g.ID = id
	return id, nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	oid, err := ObjectID("groupId", id)
	if err != nil {
		return nil, err
	}
	g, err := findOne[models.Group](ctx, r.col, bson.M{"_id": oid})
	return g.Normalize(), err
}

func (r *GroupRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddToList adds userID to one membership list, only if the user is in none of
// them. This keeps the three lists disjoint and makes repeated joins no-ops.
func (r *GroupRepository) AddToList(ctx context.Context, groupID string, list models.GroupList, userID string) (bool, error) {
	gid, err := ObjectID("groupId", groupID)
	if err != nil {
		return false, err
	}
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"_id":                         gid,
		string(models.GroupOwners):   bson.M{"$ne": uid},
		string(models.GroupMembers):  bson.M{"$ne": uid},
		string(models.GroupRequests): bson.M{"$ne": uid},
	}
	update := bson.M{
		"$addToSet": bson.M{string(list): uid},
		"$set":      bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// RemoveFromList pulls userID from list. False means it was not on that list.
func (r *GroupRepository) RemoveFromList(ctx context.Context, groupID string, list models.GroupList, userID string) (bool, error) {
	gid, err := ObjectID("groupId", groupID)
	if err != nil {
		return false, err
	}
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	filter := bson.M{"_id": gid, string(list): uid}
	update := bson.M{
		"$pull": bson.M{string(list): uid},
		"$set":  bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// MoveRequestToMembers accepts a pending request in one update.
func (r *GroupRepository) MoveRequestToMembers(ctx context.Context, groupID, userID string) (bool, error) {
	gid, err := ObjectID("groupId", groupID)
	if err != nil {
		return false, err
	}
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	filter := bson.M{"_id": gid, string(models.GroupRequests): uid}
	update := bson.M{
		"$pull":     bson.M{string(models.GroupRequests): uid},
		"$addToSet": bson.M{string(models.GroupMembers): uid},
		"$set":      bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// Update applies the patch and bumps version. With expectedVersion set the
// write only happens if the stored version still matches; nil is returned
// when nothing matched.
func (r *GroupRepository) Update(ctx context.Context, groupID string, patch models.GroupPatch, expectedVersion *int64) (*models.Group, error) {
	gid, err := ObjectID("groupId", groupID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": gid}
	if expectedVersion != nil {
		filter["version"] = *expectedVersion
	}
	fields := bson.M{"updated_at": now()}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Tags != nil {
		fields["tags"] = *patch.Tags
	}
	if patch.Visibility != nil {
		fields["visibility"] = *patch.Visibility
	}
	update := bson.M{"$set": fields, "$inc": bson.M{"version": 1}}
	g, err := findOneAndUpdate[models.Group](ctx, r.col, filter, update)
	return g.Normalize(), err
}

// Delete removes the group and returns it as stored at deletion time.
func (r *GroupRepository) Delete(ctx context.Context, groupID string) (*models.Group, error) {
	gid, err := ObjectID("groupId", groupID)
	if err != nil {
		return nil, err
	}
	g, err := findOneAndDelete[models.Group](ctx, r.col, bson.M{"_id": gid})
	return g.Normalize(), err
}

// Search matches name or description and optionally a tag, newest first.
func (r *GroupRepository) Search(ctx context.Context, query, tag string, limit int64) ([]models.Group, error) {
	filter := bson.M{}
	if query != "" {
		pattern := containsPattern(query)
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"description": pattern}}
	}
	if tag != "" {
		filter["tags"] = strings.ToLower(strings.TrimSpace(tag))
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).SetLimit(limit)
	groups, err := find[models.Group](ctx, r.col, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].Normalize()
	}
	return groups, nil
}
