package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"onlyfails/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Votes also touch the user ledger, so it holds the user repository it was
// built with and always locks its own mutex before the user mutex.
type MockProductRepository struct {
	products map[string]models.FailedProduct
	users    *MockUserRepository
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository(users *MockUserRepository) *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.FailedProduct),
		users:    users,
	}
}

func cloneProduct(p models.FailedProduct) models.FailedProduct {
	p.Comments = append([]models.Comment{}, p.Comments...)
	return p
}

// GetAll returns all products ordered by creation time.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.FailedProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.FailedProduct, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, cloneProduct(p))
	}
	sort.SliceStable(productList, func(i, j int) bool {
		return productList[i].CreatedAt.Before(productList[j].CreatedAt)
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(ctx context.Context, id string) (*models.FailedProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	product = cloneProduct(product)
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.FailedProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, ok := r.products[product.ID]; ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicate)
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Update applies patch to an existing product.
func (r *MockProductRepository) Update(ctx context.Context, id string, patch models.FailedProductPatch) (*models.FailedProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	if !patch.IsEmpty() {
		patch.Apply(&product)
		product.UpdatedAt = time.Now()
		r.products[id] = product
	}
	product = cloneProduct(product)
	return &product, nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// CastVote checks the ledger and writes both records while holding both locks.
func (r *MockProductRepository) CastVote(ctx context.Context, productID, userID string, voteType models.VoteType) (*models.VoteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return &models.VoteResult{Outcome: models.VoteProductMissing}, nil
	}
	user, ok := r.users.users[userID]
	if !ok {
		return &models.VoteResult{Outcome: models.VoteUserMissing}, nil
	}
	if user.HasVotedOn(productID) {
		return &models.VoteResult{Outcome: models.VoteAlreadyCast}, nil
	}

	if voteType == models.VoteDown {
		product.Downvotes++
	} else {
		product.Upvotes++
	}
	user.Votes = append(append([]models.Vote{}, user.Votes...), models.Vote{
		UserID:    userID,
		ProductID: productID,
		VoteType:  voteType,
		CreatedAt: time.Now(),
	})
	r.products[productID] = product
	r.users.users[userID] = user

	product = cloneProduct(product)
	return &models.VoteResult{Outcome: models.VoteRecorded, Product: &product}, nil
}

// AddComment appends the comment to the product.
func (r *MockProductRepository) AddComment(ctx context.Context, productID string, comment models.Comment) (*models.FailedProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
	}
	comment.ProductID = productID
	product.Comments = append(append([]models.Comment{}, product.Comments...), comment)
	r.products[productID] = product

	product = cloneProduct(product)
	return &product, nil
}
