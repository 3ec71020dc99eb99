package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"onlyfails/internal/logger"
	"onlyfails/internal/metrics"
	"onlyfails/internal/models"
	"onlyfails/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductInput is the body of a create request.
type ProductInput struct {
	Name        string `json:"name" validate:"required,max=500"`
	Description string `json:"description" validate:"required,max=500"`
	DesignedBy  string `json:"designedBy" validate:"required,max=50"`
	ImageURL    string `json:"imageURL" validate:"required,max=2048"`
	Category    string `json:"category" validate:"required,max=100"`
	StartDate   Date   `json:"startDate" validate:"required"`
	FailureDate Date   `json:"failureDate" validate:"required"`
}

// ProductPatch is the body of an update request. Only the fields listed here
// can change; createdBy, the vote counters and comments cannot be set.
type ProductPatch struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=500"`
	Description *string `json:"description" validate:"omitnil,min=1,max=500"`
	DesignedBy  *string `json:"designedBy" validate:"omitnil,min=1,max=50"`
	ImageURL    *string `json:"imageURL" validate:"omitnil,min=1,max=2048"`
	Category    *string `json:"category" validate:"omitnil,min=1,max=100"`
	StartDate   *Date   `json:"startDate"`
	FailureDate *Date   `json:"failureDate"`
}

func (p ProductPatch) toModel() models.FailedProductPatch {
	return models.FailedProductPatch{
		Name:        p.Name,
		Description: p.Description,
		DesignedBy:  p.DesignedBy,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		StartDate:   p.StartDate.timePtr(),
		FailureDate: p.FailureDate.timePtr(),
	}
}

// ParseVoteType accepts "upvote"/"downvote" and the stored forms "up"/"down".
func ParseVoteType(s string) (models.VoteType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upvote", "up":
		return models.VoteUp, nil
	case "downvote", "down":
		return models.VoteDown, nil
	default:
		return "", ErrInvalidVoteType
	}
}

// ProductService handles business logic related to failed products.
type ProductService struct {
	repo     repositories.ProductRepository
	users    repositories.UserRepository
	events   EventPublisher
	validate *validator.Validate
}

// NewProductService creates a new ProductService. A nil publisher disables
// events.
func NewProductService(repo repositories.ProductRepository, users repositories.UserRepository, events EventPublisher) *ProductService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ProductService{
		repo:     repo,
		users:    users,
		events:   events,
		validate: newValidator(),
	}
}

func withComments(p *models.FailedProduct) *models.FailedProduct {
	if p != nil && p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p
}

func (s *ProductService) translate(err error, action string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	logger.Log.Errorw("failed to "+action, "err", err)
	return err
}

// List returns every failed product.
func (s *ProductService) List(ctx context.Context) ([]models.FailedProduct, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.translate(err, "list products")
	}
	if products == nil {
		products = []models.FailedProduct{}
	}
	for i := range products {
		withComments(&products[i])
	}
	return products, nil
}

// GetByID returns one failed product.
func (s *ProductService) GetByID(ctx context.Context, id string) (*models.FailedProduct, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "get product")
	}
	return withComments(product), nil
}

// Create stores a new failed product owned by creatorID.
func (s *ProductService) Create(ctx context.Context, in ProductInput, creatorID string) (*models.FailedProduct, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	product := &models.FailedProduct{
		Name:        in.Name,
		Description: in.Description,
		DesignedBy:  in.DesignedBy,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		StartDate:   in.StartDate.UTC(),
		FailureDate: in.FailureDate.UTC(),
		Upvotes:     0,
		Downvotes:   0,
		Comments:    []models.Comment{},
		CreatedBy:   creatorID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		logger.Log.Errorw("failed to create product", "name", in.Name, "err", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	emit(ctx, s.events, models.EventProductCreated, creatorID, product.ID, nil)
	return withComments(product), nil
}

// Update applies the editable fields of patch to product id.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch, actorID string) (*models.FailedProduct, error) {
	if err := validateStruct(s.validate, patch); err != nil {
		return nil, err
	}

	product, err := s.repo.Update(ctx, id, patch.toModel())
	if err != nil {
		return nil, s.translate(err, "update product")
	}

	emit(ctx, s.events, models.EventProductUpdated, actorID, id, nil)
	return withComments(product), nil
}

// Delete removes product id.
func (s *ProductService) Delete(ctx context.Context, id string, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, "delete product")
	}
	emit(ctx, s.events, models.EventProductDeleted, actorID, id, nil)
	return nil
}

// requireActiveUser loads the caller and rejects banned accounts. Tokens
// outlive a ban, so every write on behalf of a user goes through here.
func (s *ProductService) requireActiveUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		logger.Log.Errorw("failed to look up user", "user_id", userID, "err", err)
		return err
	}
	if user.IsBanned {
		return ErrBanned
	}
	return nil
}

// Vote casts userID's single vote on productID.
func (s *ProductService) Vote(ctx context.Context, productID, userID, voteType string) (*models.FailedProduct, error) {
	vt, err := ParseVoteType(voteType)
	if err != nil {
		metrics.VotesTotal.WithLabelValues("invalid", "invalid_type").Inc()
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	res, err := s.repo.CastVote(ctx, productID, userID, vt)
	if err != nil {
		logger.Log.Errorw("failed to cast vote", "product_id", productID, "user_id", userID, "err", err)
		return nil, err
	}
	metrics.VotesTotal.WithLabelValues(string(vt), res.Outcome.String()).Inc()

	switch res.Outcome {
	case models.VoteRecorded:
		emit(ctx, s.events, models.EventProductVoted, userID, productID, map[string]string{"voteType": string(vt)})
		return withComments(res.Product), nil
	case models.VoteAlreadyCast:
		return nil, ErrAlreadyVoted
	case models.VoteProductMissing:
		return nil, ErrProductNotFound
	case models.VoteUserMissing:
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("unexpected vote outcome %s", res.Outcome)
	}
}

// Comment appends text by userID to productID.
func (s *ProductService) Comment(ctx context.Context, productID, userID, text string) (*models.FailedProduct, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Tag: "required", Message: `"text" is required`}
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		UserID: userID,
		Text:   text,
		Date:   time.Now().UTC(),
	}
	product, err := s.repo.AddComment(ctx, productID, comment)
	if err != nil {
		return nil, s.translate(err, "add comment")
	}
	metrics.CommentsTotal.Inc()

	emit(ctx, s.events, models.EventProductCommented, userID, productID, nil)
	return withComments(product), nil
}
