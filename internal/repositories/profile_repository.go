package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/fitcoach-backend/internal/database"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
)

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(database.ProfilesCollection)}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) (primitive.ObjectID, error) {
	ts := now()
	p.ID = primitive.NilObjectID
	p.CreatedAt, p.UpdatedAt = ts, ts
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPublic
	}
	p.Normalize()

	id, err := insert(ctx, r.col, p)
	if err != nil {
		return primitive.NilObjectID, err
	}
	p.ID = id
	return id, nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	p, err := findOne[models.Profile](ctx, r.col, bson.M{"user_id": oid})
	return p.Normalize(), err
}

// Update applies the non-nil patch fields and returns the profile after the write.
func (r *ProfileRepository) Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return nil, err
	}
	fields := bson.M{"updated_at": now()}
	if patch.DisplayName != nil {
		fields["display_name"] = *patch.DisplayName
	}
	if patch.Bio != nil {
		fields["bio"] = *patch.Bio
	}
	if patch.Visibility != nil {
		fields["visibility"] = *patch.Visibility
	}
	if patch.Biometrics != nil {
		fields["biometrics"] = *patch.Biometrics
	}
	p, err := findOneAndUpdate[models.Profile](ctx, r.col, bson.M{"user_id": oid}, bson.M{"$set": fields})
	return p.Normalize(), err
}

func (r *ProfileRepository) SetAvatar(ctx context.Context, userID, url string) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	return updateOne(ctx, r.col, bson.M{"user_id": oid}, bson.M{"$set": bson.M{"avatar_url": url, "updated_at": now()}})
}

// AddSection appends a section only if no section has the same title. A false
// result means the profile is missing or the title is taken.
func (r *ProfileRepository) AddSection(ctx context.Context, userID string, s models.CustomSection) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	if s.Items == nil {
		s.Items = []models.SectionItem{}
	}
	filter := bson.M{"user_id": oid, "sections.title": bson.M{"$ne": s.Title}}
	update := bson.M{
		"$push": bson.M{"sections": s},
		"$set":  bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// ReplaceSection overwrites the section titled title with s. When s renames the
// section the new title must not already exist.
func (r *ProfileRepository) ReplaceSection(ctx context.Context, userID, title string, s models.CustomSection) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	if s.Items == nil {
		s.Items = []models.SectionItem{}
	}
	filter := bson.M{"user_id": oid, "sections.title": title}
	if s.Title != title {
		filter = bson.M{"user_id": oid, "$and": bson.A{
			bson.M{"sections.title": title},
			bson.M{"sections.title": bson.M{"$ne": s.Title}},
		}}
	}
	update := bson.M{"$set": bson.M{"sections.$[s]": s, "updated_at": now()}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"s.title": title}},
	})
	return updateOne(ctx, r.col, filter, update, opts)
}

// RemoveSection pulls the section titled title. False means it was not present.
func (r *ProfileRepository) RemoveSection(ctx context.Context, userID, title string) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	filter := bson.M{"user_id": oid, "sections.title": title}
	update := bson.M{
		"$pull": bson.M{"sections": bson.M{"title": title}},
		"$set":  bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, filter, update)
}

// Search matches username or display name and pages by (created_at, _id).
// It fetches page.FetchLimit() rows so the caller can detect a further page.
func (r *ProfileRepository) Search(ctx context.Context, query string, page pagination.Page) ([]models.Profile, error) {
	filter := bson.M{}
	if query != "" {
		pattern := containsPattern(query)
		filter["$or"] = bson.A{
			bson.M{"username": pattern},
			bson.M{"display_name": pattern},
		}
	}
	if after := page.Filter("created_at", "_id"); len(after) > 0 {
		filter = bson.M{"$and": bson.A{filter, after}}
	}
	opts := options.Find().
		SetSort(pagination.Sort("created_at", "_id")).
		SetLimit(page.FetchLimit())
	profiles, err := find[models.Profile](ctx, r.col, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Normalize()
	}
	return profiles, nil
}
