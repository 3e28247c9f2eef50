package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"boardgame-meetup/internal/model"
)

var ErrInvalidID = errors.New("invalid id")

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database, collection string) *ListingRepository {
	return &ListingRepository{col: db.Collection(collection)}
}

func (r *ListingRepository) Insert(ctx context.Context, listing *model.Listing) error {
	listing.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, listing); err != nil {
		listing.ID = primitive.NilObjectID
		return fmt.Errorf("insert listing failed: %w", err)
	}
	return nil
}

func (r *ListingRepository) List(ctx context.Context) ([]model.Listing, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find listings failed: %w", err)
	}
	defer cur.Close(ctx)

	listings := make([]model.Listing, 0)
	if err := cur.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("decode listings failed: %w", err)
	}
	return listings, nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var listing model.Listing
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&listing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find listing failed: %w", err)
	}
	return &listing, nil
}

// DeleteByIDAndOwner removes the listing only when both id and owner match,
// in one DeleteOne call. It reports how many documents were removed.
func (r *ListingRepository) DeleteByIDAndOwner(ctx context.Context, id string, ownerID uint) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrInvalidID
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("delete listing failed: %w", err)
	}
	return res.DeletedCount, nil
}
