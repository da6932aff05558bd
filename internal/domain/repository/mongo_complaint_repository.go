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

type mongoComplaintRepository struct {
	coll *mongo.Collection
}

func NewMongoComplaintRepository(db *mongo.Database) ComplaintRepository {
	return &mongoComplaintRepository{coll: db.Collection(ComplaintsCollection)}
}

func (r *mongoComplaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return storeError("mongoComplaintRepository.Create", err)
	}
	return nil
}

func (r *mongoComplaintRepository) FindByID(ctx context.Context, id string) (*model.Complaint, error) {
	var c model.Complaint
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, storeError("mongoComplaintRepository.FindByID", err)
	}
	return &c, nil
}

func complaintFilterDoc(filter model.ComplaintFilter) bson.M {
	doc := bson.M{}
	if filter.OwnerID != "" {
		doc["owner_id"] = filter.OwnerID
	}
	if filter.Status != "" {
		doc["status"] = filter.Status
	}
	if filter.Category != "" {
		doc["category"] = filter.Category
	}
	return doc
}

func (r *mongoComplaintRepository) List(ctx context.Context, filter model.ComplaintFilter) ([]model.Complaint, int, error) {
	doc := complaintFilterDoc(filter)
	total, err := r.coll.CountDocuments(ctx, doc)
	if err != nil {
		return nil, 0, storeError("mongoComplaintRepository.List count", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))
	cursor, err := r.coll.Find(ctx, doc, opts)
	if err != nil {
		return nil, 0, storeError("mongoComplaintRepository.List find", err)
	}
	complaints := []model.Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, 0, storeError("mongoComplaintRepository.List decode", err)
	}
	return complaints, int(total), nil
}

func (r *mongoComplaintRepository) UpdateDetails(ctx context.Context, c *model.Complaint, expected model.ComplaintStatus) error {
	set := bson.M{
		"title":       c.Title,
		"description": c.Description,
		"category":    c.Category,
		"priority":    c.Priority,
		"updated_at":  c.UpdatedAt,
	}
	return r.updateConditional(ctx, "mongoComplaintRepository.UpdateDetails", c.ID, expected, bson.M{"$set": set})
}

func (r *mongoComplaintRepository) UpdateStatus(ctx context.Context, c *model.Complaint, expected model.ComplaintStatus) error {
	set := bson.M{
		"status":     c.Status,
		"updated_at": c.UpdatedAt,
	}
	unset := bson.M{}
	if c.AdminResponse != nil {
		set["admin_response"] = *c.AdminResponse
	} else {
		unset["admin_response"] = ""
	}
	if c.ResolvedAt != nil {
		set["resolved_at"] = *c.ResolvedAt
	} else {
		unset["resolved_at"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.updateConditional(ctx, "mongoComplaintRepository.UpdateStatus", c.ID, expected, update)
}

func (r *mongoComplaintRepository) updateConditional(ctx context.Context, op, id string, expected model.ComplaintStatus, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "status": expected}, update)
	if err != nil {
		return storeError(op, err)
	}
	if res.MatchedCount == 0 {
		return r.missed(ctx, op, id)
	}
	return nil
}

func (r *mongoComplaintRepository) Delete(ctx context.Context, id string, expected model.ComplaintStatus) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "status": expected})
	if err != nil {
		return storeError("mongoComplaintRepository.Delete", err)
	}
	if res.DeletedCount == 0 {
		return r.missed(ctx, "mongoComplaintRepository.Delete", id)
	}
	return nil
}

// missed tells a deleted complaint apart from one whose status moved on.
func (r *mongoComplaintRepository) missed(ctx context.Context, op, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return storeError(op+" count", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, common.ErrConflict)
}

func (r *mongoComplaintRepository) CountByStatus(ctx context.Context) (map[model.ComplaintStatus]int, error) {
	groups, err := countGroups(ctx, r.coll, "$status")
	if err != nil {
		return nil, storeError("mongoComplaintRepository.CountByStatus", err)
	}
	counts := map[model.ComplaintStatus]int{}
	for _, g := range groups {
		counts[model.ComplaintStatus(g.Key)] = g.Count
	}
	return counts, nil
}
