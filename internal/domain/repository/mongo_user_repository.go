package repository

import (
	"context"
	"errors"
	"fmt"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection      = "users"
	ComplaintsCollection = "complaints"
)

type mongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, common.ErrDuplicateEmail)
		}
		return storeError("mongoUserRepository.Create", err)
	}
	return nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "mongoUserRepository.FindByEmail", bson.M{"email": email})
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "mongoUserRepository.FindByID", bson.M{"_id": id})
}

func (r *mongoUserRepository) findOne(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, storeError(op, err)
	}
	return &user, nil
}

func (r *mongoUserRepository) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, storeError("mongoUserRepository.List count", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, storeError("mongoUserRepository.List find", err)
	}
	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, storeError("mongoUserRepository.List decode", err)
	}
	return users, int(total), nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *model.User) error {
	update := bson.M{"$set": bson.M{
		"name":       user.Name,
		"department": user.Department,
		"role":       user.Role,
		"updated_at": user.UpdatedAt,
	}}
	res, err := r.coll.UpdateByID(ctx, user.ID, update)
	if err != nil {
		return storeError("mongoUserRepository.Update", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("mongoUserRepository.Delete", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int    `bson:"count"`
}

func (r *mongoUserRepository) CountByRole(ctx context.Context) (map[model.Role]int, error) {
	groups, err := countGroups(ctx, r.coll, "$role")
	if err != nil {
		return nil, storeError("mongoUserRepository.CountByRole", err)
	}
	counts := map[model.Role]int{}
	for _, g := range groups {
		counts[model.Role(g.Key)] = g.Count
	}
	return counts, nil
}

func countGroups(ctx context.Context, coll *mongo.Collection, field string) ([]groupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var groups []groupCount
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
