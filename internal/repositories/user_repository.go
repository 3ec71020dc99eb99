package repositories

import (
	"context"

	"onlyfails/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetBanned(ctx context.Context, id string, banned bool) error
}
