package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
)

type WeekRepository struct {
	col *mongo.Collection
}

func NewWeekRepository(db *mongo.Database) *WeekRepository {
	return &WeekRepository{col: db.Collection(database.WeeksCollection)}
}

// Create inserts a week. The (program_id, week_number) index rejects duplicates.
func (r *WeekRepository) Create(ctx context.Context, w *models.Week) (primitive.ObjectID, error) {
	ts := now()
	w.ID = primitive.NilObjectID
	w.CreatedAt, w.UpdatedAt = ts, ts
	w.Version = 1
	w.Normalize()
	id, err := insert(ctx, r.col, w)
	if err != nil {
		return primitive.NilObjectID, err
	}
	w.ID = id
	return id, nil
}

func (r *WeekRepository) FindByID(ctx context.Context, id string) (*models.Week, error) {
	oid, err := ObjectID("weekId", id)
	if err != nil {
		return nil, err
	}
	w, err := findOne[models.Week](ctx, r.col, bson.M{"_id": oid})
	return w.Normalize(), err
}

// ReplaceWorkouts swaps the week's workouts and bumps its version so logs taken
// against the previous template remain distinguishable.
func (r *WeekRepository) ReplaceWorkouts(ctx context.Context, id string, workouts []models.Workout, expectedVersion *int64) (*models.Week, error) {
	oid, err := ObjectID("weekId", id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if expectedVersion != nil {
		filter["version"] = *expectedVersion
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	update := bson.M{
		"$set": bson.M{"workouts": workouts, "updated_at": now()},
		"$inc": bson.M{"version": 1},
	}
	w, err := findOneAndUpdate[models.Week](ctx, r.col, filter, update)
	return w.Normalize(), err
}

func (r *WeekRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

func (r *WeekRepository) DeleteByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"program_id": programID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
