package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onlyfails/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared with existing OnlyFails Mongo deployments.
const (
	ProductCollection = "failedproducts"
	UserCollection    = "users"
)

// MongoProductRepository is a MongoDB implementation of ProductRepository.
// Comments are embedded in the product document and votes in the user
// document.
type MongoProductRepository struct {
	products *mongo.Collection
	users    *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		products: db.Collection(ProductCollection),
		users:    db.Collection(UserCollection),
	}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// GetAll retrieves all failed products ordered by creation time.
func (r *MongoProductRepository) GetAll(ctx context.Context) ([]models.FailedProduct, error) {
	cur, err := r.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	products := make([]models.FailedProduct, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single failed product by its ID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.FailedProduct, error) {
	var product models.FailedProduct
	if err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new failed product document.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.FailedProduct) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Comments == nil {
		product.Comments = []models.Comment{}
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	if _, err := r.products.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update sets the non-nil fields of patch and returns the stored document.
func (r *MongoProductRepository) Update(ctx context.Context, id string, patch models.FailedProductPatch) (*models.FailedProduct, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.DesignedBy != nil {
		set["designedBy"] = *patch.DesignedBy
	}
	if patch.ImageURL != nil {
		set["imageURL"] = *patch.ImageURL
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.StartDate != nil {
		set["startDate"] = *patch.StartDate
	}
	if patch.FailureDate != nil {
		set["failureDate"] = *patch.FailureDate
	}

	var product models.FailedProduct
	err := r.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return &product, nil
}

// Delete removes a failed product document.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// CastVote appends to the ledger with a compare-and-append update (the filter
// only matches a user without a vote for productID), then increments the
// counter. If the product vanished in between, the ledger entry is pulled
// again.
func (r *MongoProductRepository) CastVote(ctx context.Context, productID, userID string, voteType models.VoteType) (*models.VoteResult, error) {
	n, err := r.products.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %s: %w", productID, err)
	}
	if n == 0 {
		return &models.VoteResult{Outcome: models.VoteProductMissing}, nil
	}

	vote := models.Vote{ProductID: productID, VoteType: voteType}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "votes.productId": bson.M{"$ne": productID}},
		bson.M{"$push": bson.M{"votes": vote}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record vote for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID})
		if err != nil {
			return nil, fmt.Errorf("failed to look up user %s: %w", userID, err)
		}
		if n == 0 {
			return &models.VoteResult{Outcome: models.VoteUserMissing}, nil
		}
		return &models.VoteResult{Outcome: models.VoteAlreadyCast}, nil
	}

	counter := "upvotes"
	if voteType == models.VoteDown {
		counter = "downvotes"
	}
	var product models.FailedProduct
	err = r.products.FindOneAndUpdate(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{counter: 1}},
		returnAfter,
	).Decode(&product)
	if err == nil {
		return &models.VoteResult{Outcome: models.VoteRecorded, Product: &product}, nil
	}

	if _, pullErr := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"votes": bson.M{"productId": productID}}},
	); pullErr != nil {
		return nil, fmt.Errorf("failed to roll back vote of user %s on product %s: %w", userID, productID, errors.Join(err, pullErr))
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.VoteResult{Outcome: models.VoteProductMissing}, nil
	}
	return nil, fmt.Errorf("failed to increment %s on product %s: %w", counter, productID, err)
}

// AddComment pushes the comment onto the embedded comment array.
func (r *MongoProductRepository) AddComment(ctx context.Context, productID string, comment models.Comment) (*models.FailedProduct, error) {
	var product models.FailedProduct
	err := r.products.FindOneAndUpdate(ctx,
		bson.M{"_id": productID},
		bson.M{"$push": bson.M{"comments": comment}},
		returnAfter,
	).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add comment to product %s: %w", productID, err)
	}
	return &product, nil
}
