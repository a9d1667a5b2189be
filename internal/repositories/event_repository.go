package repositories

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
)

type EventRepository struct {
	col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(database.EventsCollection)}
}

func (r *EventRepository) Create(ctx context.Context, e *models.Event) (primitive.ObjectID, error) {
	ts := now()
	e.ID = primitive.NilObjectID
	e.CreatedAt, e.UpdatedAt = ts, ts
	e.Version = 1
	e.Normalize()
	id, err := insert(ctx, r.col, e)
	if err != nil {
		return primitive.NilObjectID, err
	}
	e.ID = id
	return id, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	oid, err := ObjectID("eventId", id)
	if err != nil {
		return nil, err
	}
	e, err := findOne[models.Event](ctx, r.col, bson.M{"_id": oid})
	return e.Normalize(), err
}

// AddInvitees appends invitees to the event, skipping ids already present.
func (r *EventRepository) AddInvitees(ctx context.Context, eventID primitive.ObjectID, invitees []primitive.ObjectID) (bool, error) {
	update := bson.M{
		"$addToSet": bson.M{"invitees": bson.M{"$each": invitees}},
		"$set":      bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, bson.M{"_id": eventID}, update)
}

// Update applies the patch with an optional version check, returning nil when
// nothing matched.
func (r *EventRepository) Update(ctx context.Context, eventID string, patch models.EventPatch, expectedVersion *int64) (*models.Event, error) {
	oid, err := ObjectID("eventId", eventID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if expectedVersion != nil {
		filter["version"] = *expectedVersion
	}
	fields := bson.M{"updated_at": now()}
	if patch.Title != nil {
		fields["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.StartsAt != nil {
		fields["starts_at"] = patch.StartsAt.UTC()
	}
	if patch.EndsAt != nil {
		fields["ends_at"] = patch.EndsAt.UTC()
	}
	if patch.Metadata != nil {
		meta := *patch.Metadata
		if meta.Tags == nil {
			meta.Tags = []string{}
		}
		if meta.Alerts == nil {
			meta.Alerts = []models.EventAlert{}
		}
		fields["metadata"] = meta
	}
	update := bson.M{"$set": fields, "$inc": bson.M{"version": 1}}
	e, err := findOneAndUpdate[models.Event](ctx, r.col, filter, update)
	return e.Normalize(), err
}

// Delete removes the event and returns it as stored at deletion time, so the
// caller's fan-out sees participants added up to that point.
func (r *EventRepository) Delete(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error) {
	e, err := findOneAndDelete[models.Event](ctx, r.col, bson.M{"_id": eventID})
	return e.Normalize(), err
}
