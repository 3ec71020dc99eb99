package repositories

import (
	"context"

	"onlyfails/internal/models"
)

// ProductRepository defines the interface for failed product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.FailedProduct, error)
	GetByID(ctx context.Context, id string) (*models.FailedProduct, error)
	Create(ctx context.Context, product *models.FailedProduct) error
	Update(ctx context.Context, id string, patch models.FailedProductPatch) (*models.FailedProduct, error)
	Delete(ctx context.Context, id string) error

	// CastVote appends {productID, voteType} to the user's vote ledger and
	// bumps the matching counter as one atomic step. A ledger that already
	// holds productID leaves both records untouched and yields VoteAlreadyCast.
	CastVote(ctx context.Context, productID, userID string, voteType models.VoteType) (*models.VoteResult, error)

	// AddComment appends comment to the product in a single write.
	AddComment(ctx context.Context, productID string, comment models.Comment) (*models.FailedProduct, error)
}
