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

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(database.UsersCollection)}
}

// Create inserts a new active user. Username and email are stored lower-cased
// so the unique indexes are case-insensitive.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (primitive.ObjectID, error) {
	ts := now()
	u.ID = primitive.NilObjectID
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = ts, ts
	u.Normalize()

	id, err := insert(ctx, r.col, u)
	if err != nil {
		return primitive.NilObjectID, err
	}
	u.ID = id
	return id, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := ObjectID("userId", id)
	if err != nil {
		return nil, err
	}
	u, err := findOne[models.User](ctx, r.col, bson.M{"_id": oid})
	return u.Normalize(), err
}

// FindByLogin looks a user up by username or email.
func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	field := "username"
	if strings.Contains(key, "@") {
		field = "email"
	}
	u, err := findOne[models.User](ctx, r.col, bson.M{field: key})
	return u.Normalize(), err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := findOne[models.User](ctx, r.col, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	return u.Normalize(), err
}

func (r *UserRepository) FindByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	u, err := findOne[models.User](ctx, r.col, bson.M{"oauth.provider": provider, "oauth.subject": subject})
	return u.Normalize(), err
}

// FindByRefreshToken finds the owner of a refresh token hash.
func (r *UserRepository) FindByRefreshToken(ctx context.Context, tokenHash string) (*models.User, error) {
	u, err := findOne[models.User](ctx, r.col, bson.M{"refresh_tokens.token_hash": tokenHash})
	return u.Normalize(), err
}

// LinkOAuth attaches a provider identity to an account that has none yet.
func (r *UserRepository) LinkOAuth(ctx context.Context, userID string, link models.OAuthLink) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	filter := bson.M{"_id": oid, "oauth": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"oauth": link, "updated_at": now()}}
	return updateOne(ctx, r.col, filter, update)
}

// PutRefreshToken stores rt, replacing any record for the same device and
// dropping expired ones, in a single pipeline update.
func (r *UserRepository) PutRefreshToken(ctx context.Context, userID string, rt models.RefreshToken) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	ts := now()
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = ts
	}
	keep := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$refresh_tokens", bson.A{}}},
		"as":    "t",
		"cond": bson.M{"$and": bson.A{
			bson.M{"$ne": bson.A{"$$t.device_id", rt.DeviceID}},
			bson.M{"$gt": bson.A{"$$t.expires_at", ts}},
		}},
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"refresh_tokens": bson.M{"$concatArrays": bson.A{keep, bson.A{rt}}},
			"updated_at":     ts,
		}}},
	}
	return updateOne(ctx, r.col, bson.M{"_id": oid}, pipeline)
}

// RemoveRefreshToken pulls the record for deviceID.
func (r *UserRepository) RemoveRefreshToken(ctx context.Context, userID, deviceID string) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	update := bson.M{
		"$pull": bson.M{"refresh_tokens": bson.M{"device_id": deviceID}},
		"$set":  bson.M{"updated_at": now()},
	}
	return updateOne(ctx, r.col, bson.M{"_id": oid}, update)
}

func (r *UserRepository) SetDeviceToken(ctx context.Context, userID, token string) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	return updateOne(ctx, r.col, bson.M{"_id": oid}, bson.M{"$set": bson.M{"device_token": token, "updated_at": now()}})
}

// SetActive toggles the account flag. Deactivation also revokes every refresh token.
func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) (bool, error) {
	oid, err := ObjectID("userId", userID)
	if err != nil {
		return false, err
	}
	fields := bson.M{"is_active": active, "updated_at": now()}
	if !active {
		fields["refresh_tokens"] = bson.A{}
	}
	return updateOne(ctx, r.col, bson.M{"_id": oid}, bson.M{"$set": fields})
}
