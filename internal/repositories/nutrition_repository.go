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
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
)

type NutritionProgramRepository struct {
	col *mongo.Collection
}

func NewNutritionProgramRepository(db *mongo.Database) *NutritionProgramRepository {
	return &NutritionProgramRepository{col: db.Collection(database.NutritionProgramsCollection)}
}

func (r *NutritionProgramRepository) Create(ctx context.Context, p *models.NutritionProgram) (primitive.ObjectID, error) {
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

func (r *NutritionProgramRepository) FindByID(ctx context.Context, id string) (*models.NutritionProgram, error) {
	oid, err := ObjectID("programId", id)
	if err != nil {
		return nil, err
	}
	p, err := findOne[models.NutritionProgram](ctx, r.col, bson.M{"_id": oid})
	return p.Normalize(), err
}

func (r *NutritionProgramRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.NutritionProgram, error) {
	oid, err := ObjectID("ownerId", ownerID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	programs, err := find[models.NutritionProgram](ctx, r.col, bson.M{"owner_id": oid}, opts)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		programs[i].Normalize()
	}
	return programs, nil
}

func (r *NutritionProgramRepository) PushPhase(ctx context.Context, programID primitive.ObjectID, phase models.NutritionPhase) (bool, error) {
	update := bson.M{"$push": bson.M{"phases": phase}, "$set": bson.M{"updated_at": now()}}
	return updateOne(ctx, r.col, bson.M{"_id": programID}, update)
}

// SetPhaseTargets stores freshly calculated numbers on one phase.
func (r *NutritionProgramRepository) SetPhaseTargets(ctx context.Context, programID, phaseID primitive.ObjectID, phase models.NutritionPhase) (bool, error) {
	update := bson.M{"$set": bson.M{
		"phases.$[p].weekly_change": phase.WeeklyChange,
		"phases.$[p].bmr":           phase.BMR,
		"phases.$[p].tdee":          phase.TDEE,
		"phases.$[p].targets":       phase.Targets,
		"phases.$[p].calculated_at": phase.CalculatedAt,
		"updated_at":                now(),
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"p.id": phaseID}},
	})
	return updateOne(ctx, r.col, bson.M{"_id": programID, "phases.id": phaseID}, update, opts)
}

func (r *NutritionProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

// Tree joins the program with its meal templates, sorted by name.
func (r *NutritionProgramRepository) Tree(ctx context.Context, id string) (*models.NutritionProgramTree, error) {
	oid, err := ObjectID("programId", id)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": oid}}},
		{{Key: "$lookup", Value: bson.M{
			"from": database.MealsCollection,
			"let":  bson.M{"pid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$program_id", "$$pid"}}}},
				bson.M{"$sort": bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
			},
			"as": "meals",
		}}},
	}
	trees, err := aggregate[models.NutritionProgramTree](ctx, r.col, pipeline)
	if err != nil {
		return nil, err
	}
	if len(trees) == 0 {
		return nil, nil
	}
	return trees[0].Normalize(), nil
}

type MealRepository struct {
	col *mongo.Collection
}

func NewMealRepository(db *mongo.Database) *MealRepository {
	return &MealRepository{col: db.Collection(database.MealsCollection)}
}

// Create stores a meal template with totals derived from its ingredients.
func (r *MealRepository) Create(ctx context.Context, m *models.MealTemplate) (primitive.ObjectID, error) {
	ts := now()
	m.ID = primitive.NilObjectID
	m.CreatedAt, m.UpdatedAt = ts, ts
	m.Version = 1
	m.Normalize()
	m.Totals = nutrition.MealTotals(m.Ingredients)
	id, err := insert(ctx, r.col, m)
	if err != nil {
		return primitive.NilObjectID, err
	}
	m.ID = id
	return id, nil
}

func (r *MealRepository) FindByID(ctx context.Context, id string) (*models.MealTemplate, error) {
	oid, err := ObjectID("mealId", id)
	if err != nil {
		return nil, err
	}
	m, err := findOne[models.MealTemplate](ctx, r.col, bson.M{"_id": oid})
	return m.Normalize(), err
}

// Update replaces name and ingredients, recomputes totals and bumps version.
func (r *MealRepository) Update(ctx context.Context, id, name string, ingredients []nutrition.Ingredient, expectedVersion *int64) (*models.MealTemplate, error) {
	oid, err := ObjectID("mealId", id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if expectedVersion != nil {
		filter["version"] = *expectedVersion
	}
	update := bson.M{
		"$set": bson.M{
			"name":        strings.TrimSpace(name),
			"ingredients": ingredients,
			"totals":      nutrition.MealTotals(ingredients),
			"updated_at":  now(),
		},
		"$inc": bson.M{"version": 1},
	}
	m, err := findOneAndUpdate[models.MealTemplate](ctx, r.col, filter, update)
	return m.Normalize(), err
}

func (r *MealRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

// DeleteByProgram removes every meal attached to a nutrition program.
func (r *MealRepository) DeleteByProgram(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"program_id": programID})
	return err
}

// ListByOwner lists the owner's meals, optionally restricted to one program.
func (r *MealRepository) ListByOwner(ctx context.Context, ownerID, programID string) ([]models.MealTemplate, error) {
	oid, err := ObjectID("ownerId", ownerID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"owner_id": oid}
	if programID != "" {
		pid, err := ObjectID("programId", programID)
		if err != nil {
			return nil, err
		}
		filter["program_id"] = pid
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	meals, err := find[models.MealTemplate](ctx, r.col, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range meals {
		meals[i].Normalize()
	}
	return meals, nil
}
