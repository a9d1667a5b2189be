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

type ProgramRepository struct {
	col *mongo.Collection
}

func NewProgramRepository(db *mongo.Database) *ProgramRepository {
	return &ProgramRepository{col: db.Collection(database.ProgramsCollection)}
}

func (r *ProgramRepository) Create(ctx context.Context, p *models.Program) (primitive.ObjectID, error) {
	ts := now()
	p.ID = primitive.NilObjectID
	p.CreatedAt, p.UpdatedAt = ts, ts
	p.Normalize()
	id, err := insert(ctx, r.col, p)
	if err != nil {
		return primitive.NilObjectID, err
	}
	p.ID = id
	return id, nil
}

func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	oid, err := ObjectID("programId", id)
	if err != nil {
		return nil, err
	}
	p, err := findOne[models.Program](ctx, r.col, bson.M{"_id": oid})
	return p.Normalize(), err
}

func (r *ProgramRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Program, error) {
	oid, err := ObjectID("ownerId", ownerID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	programs, err := find[models.Program](ctx, r.col, bson.M{"owner_id": oid}, opts)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		programs[i].Normalize()
	}
	return programs, nil
}

func (r *ProgramRepository) Update(ctx context.Context, id string, patch models.ProgramPatch) (*models.Program, error) {
	oid, err := ObjectID("programId", id)
	if err != nil {
		return nil, err
	}
	fields := bson.M{"updated_at": now()}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Phases != nil {
		fields["phases"] = *patch.Phases
	}
	p, err := findOneAndUpdate[models.Program](ctx, r.col, bson.M{"_id": oid}, bson.M{"$set": fields})
	return p.Normalize(), err
}

func (r *ProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

func (r *ProgramRepository) PushWeek(ctx context.Context, programID, weekID primitive.ObjectID) (bool, error) {
	update := bson.M{"$addToSet": bson.M{"week_ids": weekID}, "$set": bson.M{"updated_at": now()}}
	return updateOne(ctx, r.col, bson.M{"_id": programID}, update)
}

func (r *ProgramRepository) PullWeek(ctx context.Context, programID, weekID primitive.ObjectID) (bool, error) {
	update := bson.M{"$pull": bson.M{"week_ids": weekID}, "$set": bson.M{"updated_at": now()}}
	return updateOne(ctx, r.col, bson.M{"_id": programID}, update)
}

// Tree returns the program with its weeks (and their embedded workouts,
// exercises and sets) in week order, or nil if the program does not exist.
func (r *ProgramRepository) Tree(ctx context.Context, id string) (*models.ProgramTree, error) {
	oid, err := ObjectID("programId", id)
	if err != nil {
		return nil, err
	}
	trees, err := aggregate[models.ProgramTree](ctx, r.col, programTreePipeline(oid))
	if err != nil {
		return nil, err
	}
	if len(trees) == 0 {
		return nil, nil
	}
	return trees[0].Normalize(), nil
}

func programTreePipeline(programID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": programID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.WeeksCollection,
			"localField":   "_id",
			"foreignField": "program_id",
			"as":           "weeks",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$weeks", "preserveNullAndEmptyArrays": true}}},
		// $group does not keep order, so sort before regrouping
		{{Key: "$sort", Value: bson.D{{Key: "weeks.week_number", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$_id",
			"program": bson.M{"$first": "$$ROOT"},
			"weeks":   bson.M{"$push": "$weeks"},
		}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": bson.M{
			"$mergeObjects": bson.A{"$program", bson.M{"weeks": "$weeks"}},
		}}}},
	}
}
