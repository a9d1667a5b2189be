package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
)

// WorkoutLogRepository is append-only: logs are inserted and listed, never updated.
type WorkoutLogRepository struct {
	col *mongo.Collection
}

func NewWorkoutLogRepository(db *mongo.Database) *WorkoutLogRepository {
	return &WorkoutLogRepository{col: db.Collection(database.WorkoutLogsCollection)}
}

func (r *WorkoutLogRepository) Create(ctx context.Context, l *models.WorkoutLog) (primitive.ObjectID, error) {
	l.ID = primitive.NilObjectID
	l.CreatedAt = now()
	if l.PerformedAt.IsZero() {
		l.PerformedAt = l.CreatedAt
	}
	l.Normalize()
	id, err := insert(ctx, r.col, l)
	if err != nil {
		return primitive.NilObjectID, err
	}
	l.ID = id
	return id, nil
}

// List returns the user's logs, newest first, optionally for one program.
func (r *WorkoutLogRepository) List(ctx context.Context, userID, programID string, limit int64) ([]models.WorkoutLog, error) {
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"user_id": uid}
	if programID != "" {
		pid, err := ObjectID("programId", programID)
		if err != nil {
			return nil, err
		}
		filter["program_id"] = pid
	}
	opts := options.Find().SetSort(bson.D{{Key: "performed_at", Value: -1}, {Key: "_id", Value: 1}}).SetLimit(limit)
	logs, err := find[models.WorkoutLog](ctx, r.col, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		logs[i].Normalize()
	}
	return logs, nil
}

type NoteRepository struct {
	col *mongo.Collection
}

func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{col: db.Collection(database.NotesCollection)}
}

func (r *NoteRepository) Create(ctx context.Context, n *models.Note) (primitive.ObjectID, error) {
	n.ID = primitive.NilObjectID
	n.CreatedAt = now()
	id, err := insert(ctx, r.col, n)
	if err != nil {
		return primitive.NilObjectID, err
	}
	n.ID = id
	return id, nil
}

// ListByProgram pages a program's notes by (created_at, _id).
func (r *NoteRepository) ListByProgram(ctx context.Context, programID string, page pagination.Page) ([]models.Note, error) {
	pid, err := ObjectID("programId", programID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"program_id": pid}
	if after := page.Filter("created_at", "_id"); len(after) > 0 {
		filter = bson.M{"$and": bson.A{filter, after}}
	}
	opts := options.Find().SetSort(pagination.Sort("created_at", "_id")).SetLimit(page.FetchLimit())
	return find[models.Note](ctx, r.col, filter, opts)
}

// Delete removes a note only if userID wrote it.
func (r *NoteRepository) Delete(ctx context.Context, noteID, userID string) (bool, error) {
	nid, err := ObjectID("noteId", noteID)
	if err != nil {
		return false, err
	}
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	return deleteOne(ctx, r.col, bson.M{"_id": nid, "user_id": uid})
}

func (r *NoteRepository) DeleteByProgram(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"program_id": programID})
	return err
}

// MealLogRepository is append-only like workout logs.
type MealLogRepository struct {
	col *mongo.Collection
}

func NewMealLogRepository(db *mongo.Database) *MealLogRepository {
	return &MealLogRepository{col: db.Collection(database.MealLogsCollection)}
}

func (r *MealLogRepository) Create(ctx context.Context, l *models.MealLog) (primitive.ObjectID, error) {
	l.ID = primitive.NilObjectID
	l.CreatedAt = now()
	if l.EatenAt.IsZero() {
		l.EatenAt = l.CreatedAt
	}
	id, err := insert(ctx, r.col, l)
	if err != nil {
		return primitive.NilObjectID, err
	}
	l.ID = id
	return id, nil
}

// ListRange returns logs with eaten_at in [from, to), oldest first.
func (r *MealLogRepository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.MealLog, error) {
	uid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"user_id": uid, "eaten_at": bson.M{"$gte": from.UTC(), "$lt": to.UTC()}}
	opts := options.Find().SetSort(bson.D{{Key: "eaten_at", Value: 1}, {Key: "_id", Value: 1}})
	return find[models.MealLog](ctx, r.col, filter, opts)
}
