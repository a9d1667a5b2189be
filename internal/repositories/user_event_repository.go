package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
)

// UserEventRepository owns each user's personal event list.
type UserEventRepository struct {
	col *mongo.Collection
}

func NewUserEventRepository(db *mongo.Database) *UserEventRepository {
	return &UserEventRepository{col: db.Collection(database.UserEventsCollection)}
}

func (r *UserEventRepository) Create(ctx context.Context, ue *models.UserEvents) (primitive.ObjectID, error) {
	ue.ID = primitive.NilObjectID
	ue.Normalize()
	id, err := insert(ctx, r.col, ue)
	if err != nil {
		return primitive.NilObjectID, err
	}
	ue.ID = id
	return id, nil
}

func (r *UserEventRepository) FindByUserID(ctx context.Context, userID string) (*models.UserEvents, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	ue, err := findOne[models.UserEvents](ctx, r.col, bson.M{"user_id": oid})
	return ue.Normalize(), err
}

// AddEvent pushes an event reference onto the user's list. False means the
// user has no list or the event is already on it.
func (r *UserEventRepository) AddEvent(ctx context.Context, userID, eventID primitive.ObjectID, status models.EventStatus) (bool, error) {
	filter := bson.M{"user_id": userID, "events.event_id": bson.M{"$ne": eventID}}
	ref := models.EventRef{EventID: eventID, Status: status, UpdatedAt: now()}
	return updateOne(ctx, r.col, filter, bson.M{"$push": bson.M{"events": ref}})
}

// SetStatus records an invitee's response. Admin entries are never changed.
func (r *UserEventRepository) SetStatus(ctx context.Context, userID, eventID string, status models.EventStatus) (bool, error) {
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	eid, err := ObjectID("eventId", eventID)
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"user_id": uid,
		"events": bson.M{"$elemMatch": bson.M{
			"event_id": eid,
			"status":   bson.M{"$ne": models.EventAdmin},
		}},
	}
	update := bson.M{"$set": bson.M{"events.$.status": status, "events.$.updated_at": now()}}
	return updateOne(ctx, r.col, filter, update)
}

// RemoveEvent pulls eventID from every listed user's list.
func (r *UserEventRepository) RemoveEvent(ctx context.Context, userIDs []primitive.ObjectID, eventID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	filter := bson.M{"user_id": bson.M{"$in": userIDs}}
	update := bson.M{"$pull": bson.M{"events": bson.M{"event_id": eventID}}}
	_, err := r.col.UpdateMany(ctx, filter, update)
	return err
}

// ListEvents joins the user's list to the events, optionally bounded by start
// time, ordered by start.
func (r *UserEventRepository) ListEvents(ctx context.Context, userID string, from, to *time.Time) ([]models.UserEventView, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	views, err := aggregate[models.UserEventView](ctx, r.col, userEventsPipeline(oid, from, to))
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Event.Normalize()
	}
	return views, nil
}

func userEventsPipeline(userID primitive.ObjectID, from, to *time.Time) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$unwind", Value: "$events"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.EventsCollection,
			"localField":   "events.event_id",
			"foreignField": "_id",
			"as":           "event",
		}}},
		{{Key: "$unwind", Value: "$event"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": bson.M{
			"$mergeObjects": bson.A{"$event", bson.M{"status": "$events.status"}},
		}}}},
	}
	window := bson.M{}
	if from != nil {
		window["$gte"] = from.UTC()
	}
	if to != nil {
		window["$lt"] = to.UTC()
	}
	if len(window) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"starts_at": window}}})
	}
	return append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}}})
}
