package handlers

import (
	"errors"

	"onlyfails/internal/middleware"
	"onlyfails/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	users *services.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/admin/login", h.HandleAdminLogin)
}

// HandleRegister handles new user registration. The role is never read from
// the body.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	userID, err := h.users.Register(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"userId":  userID,
	})
}

// HandleLogin handles user login and issues a token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	result, err := h.users.Login(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	c.Set(middleware.TokenHeader, result.Token)
	return c.JSON(fiber.Map{
		"token":  result.Token,
		"userId": result.UserID,
		"role":   result.Role,
	})
}

// HandleAdminLogin handles admin login. Only accounts holding the admin role
// can succeed here.
func (h *AuthHandler) HandleAdminLogin(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	result, err := h.users.LoginAdmin(c.UserContext(), req)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid admin credentials."})
	case errors.Is(err, services.ErrBanned):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin is banned."})
	case err != nil:
		return writeError(c, err)
	}

	c.Set(middleware.TokenHeader, result.Token)
	return c.JSON(fiber.Map{
		"token":   result.Token,
		"adminId": result.UserID,
		"role":    result.Role,
	})
}
