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
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 10

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(id, role string) (string, error)
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email,min=6,max=50"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,min=6,max=50"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string
	UserID string
	Role   models.Role
}

// UserService handles registration, login and account administration.
type UserService struct {
	repo     repositories.UserRepository
	tokens   TokenIssuer
	events   EventPublisher
	validate *validator.Validate
}

// NewUserService creates a new UserService. A nil publisher disables events.
func NewUserService(repo repositories.UserRepository, tokens TokenIssuer, events EventPublisher) *UserService {
	if events == nil {
		events = NopPublisher{}
	}
	return &UserService{
		repo:     repo,
		tokens:   tokens,
		events:   events,
		validate: newValidator(),
	}
}

// Register creates a regular user account and returns its ID.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (string, error) {
	return s.createAccount(ctx, in, models.RoleUser)
}

// ProvisionAdmin creates an admin account. There is no HTTP route to it; it is
// reached only from the command line.
func (s *UserService) ProvisionAdmin(ctx context.Context, in RegisterInput) (string, error) {
	return s.createAccount(ctx, in, models.RoleAdmin)
}

func (s *UserService) createAccount(ctx context.Context, in RegisterInput, role models.Role) (string, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return "", err
	}
	email := strings.ToLower(in.Email)
	username := strings.ToLower(in.Username)

	if taken, err := s.exists(ctx, s.repo.GetByEmail, email); err != nil {
		return "", err
	} else if taken {
		return "", ErrDuplicateEmail
	}
	if taken, err := s.exists(ctx, s.repo.GetByUsername, username); err != nil {
		return "", err
	} else if taken {
		return "", ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		Password:     string(hashedPassword),
		Role:         role,
		IsBanned:     false,
		Votes:        []models.Vote{},
		RegisterDate: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race against a concurrent registration.
			taken, err := s.exists(ctx, s.repo.GetByEmail, email)
			if err != nil {
				return "", err
			}
			if taken {
				return "", ErrDuplicateEmail
			}
			return "", ErrDuplicateUsername
		}
		logger.Log.Errorw("failed to save user", "username", username, "err", err)
		return "", fmt.Errorf("failed to register user: %w", err)
	}

	emit(ctx, s.events, models.EventUserRegistered, user.ID, "", map[string]string{"role": string(role)})
	return user.ID, nil
}

func (s *UserService) exists(ctx context.Context, get func(context.Context, string) (*models.User, error), key string) (bool, error) {
	_, err := get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		logger.Log.Errorw("failed to check user exists", "err", err)
		return false, err
	}
}

// Login authenticates a regular user.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	return s.login(ctx, in, models.RoleUser)
}

// LoginAdmin authenticates an admin. Regular users never match.
func (s *UserService) LoginAdmin(ctx context.Context, in LoginInput) (*LoginResult, error) {
	return s.login(ctx, in, models.RoleAdmin)
}

func (s *UserService) login(ctx context.Context, in LoginInput, role models.Role) (*LoginResult, error) {
	result, err := s.authenticate(ctx, in, role)
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials):
		outcome = "invalid_credentials"
	case errors.Is(err, ErrBanned):
		outcome = "banned"
	default:
		var verr *ValidationError
		if errors.As(err, &verr) {
			outcome = "invalid_input"
		} else {
			outcome = "error"
		}
	}
	metrics.LoginsTotal.WithLabelValues(string(role), outcome).Inc()
	return result, err
}

func (s *UserService) authenticate(ctx context.Context, in LoginInput, role models.Role) (*LoginResult, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmailAndRole(ctx, strings.ToLower(in.Email), role)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		logger.Log.Errorw("failed to look up user", "role", role, "err", err)
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	// Ban status is disclosed before the password check, as the API always has.
	if user.IsBanned {
		return nil, ErrBanned
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		logger.Log.Errorw("failed to issue token", "user_id", user.ID, "err", err)
		return nil, err
	}

	return &LoginResult{Token: token, UserID: user.ID, Role: user.Role}, nil
}

// SetBanned bans or unbans the account registered with email. Tokens issued
// before the change stay valid, but voting and commenting re-check the flag.
func (s *UserService) SetBanned(ctx context.Context, email string, banned bool) error {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user %s: %w", email, err)
	}
	if err := s.repo.SetBanned(ctx, user.ID, banned); err != nil {
		return fmt.Errorf("failed to update ban status: %w", err)
	}
	logger.Log.Infow("ban status changed", "user_id", user.ID, "banned", banned)
	return nil
}
