package repositories

import (
	"context"
	"errors"
	"fmt"

	"onlyfails/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errVoteRejected rolls back a vote transaction whose ledger insert lost the
// race on idx_user_product.
var errVoteRejected = errors.New("vote rejected by ledger")

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC, id ASC")
}

// GetAll retrieves all failed products with their comments.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.FailedProduct, error) {
	var products []models.FailedProduct
	err := r.db.WithContext(ctx).
		Preload("Comments", orderedComments).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single failed product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.FailedProduct, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *GORMProductRepository) getByID(db *gorm.DB, id string) (*models.FailedProduct, error) {
	var product models.FailedProduct
	if err := db.Preload("Comments", orderedComments).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new failed product.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.FailedProduct) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the non-nil fields of patch and returns the stored product.
func (r *GORMProductRepository) Update(ctx context.Context, id string, patch models.FailedProductPatch) (*models.FailedProduct, error) {
	var updated *models.FailedProduct
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.FailedProduct{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}

		if columns := patchColumns(patch); len(columns) > 0 {
			if err := tx.Model(&models.FailedProduct{ID: id}).Updates(columns).Error; err != nil {
				return err
			}
		}

		p, err := r.getByID(tx, id)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return updated, nil
}

func patchColumns(p models.FailedProductPatch) map[string]interface{} {
	columns := make(map[string]interface{})
	if p.Name != nil {
		columns["name"] = *p.Name
	}
	if p.Description != nil {
		columns["description"] = *p.Description
	}
	if p.DesignedBy != nil {
		columns["designed_by"] = *p.DesignedBy
	}
	if p.ImageURL != nil {
		columns["image_url"] = *p.ImageURL
	}
	if p.Category != nil {
		columns["category"] = *p.Category
	}
	if p.StartDate != nil {
		columns["start_date"] = *p.StartDate
	}
	if p.FailureDate != nil {
		columns["failure_date"] = *p.FailureDate
	}
	return columns
}

// Delete removes a failed product and its comments. Vote ledgers keep their
// entries.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Comments reference the product, so they go first.
		if err := tx.Where("product_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.FailedProduct{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// CastVote records the vote inside one transaction. The ledger row and the
// counter increment commit together; idx_user_product rejects a concurrent
// second vote even when both transactions pass the existence check.
func (r *GORMProductRepository) CastVote(ctx context.Context, productID, userID string, voteType models.VoteType) (*models.VoteResult, error) {
	outcome := models.VoteRecorded
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FailedProduct{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			outcome = models.VoteProductMissing
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			outcome = models.VoteUserMissing
			return nil
		}

		if err := tx.Model(&models.Vote{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			outcome = models.VoteAlreadyCast
			return nil
		}

		vote := models.Vote{UserID: userID, ProductID: productID, VoteType: voteType}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errVoteRejected
			}
			return err
		}

		column := "upvotes"
		if voteType == models.VoteDown {
			column = "downvotes"
		}
		return tx.Model(&models.FailedProduct{}).
			Where("id = ?", productID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, errVoteRejected) {
			return &models.VoteResult{Outcome: models.VoteAlreadyCast}, nil
		}
		return nil, fmt.Errorf("failed to cast vote on product %s: %w", productID, err)
	}
	if outcome != models.VoteRecorded {
		return &models.VoteResult{Outcome: outcome}, nil
	}

	product, err := r.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &models.VoteResult{Outcome: outcome, Product: product}, nil
}

// AddComment inserts the comment row and returns the product with all comments.
func (r *GORMProductRepository) AddComment(ctx context.Context, productID string, comment models.Comment) (*models.FailedProduct, error) {
	var updated *models.FailedProduct
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FailedProduct{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
		}

		comment.ProductID = productID
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		p, err := r.getByID(tx, productID)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add comment to product %s: %w", productID, err)
	}
	return updated, nil
}
