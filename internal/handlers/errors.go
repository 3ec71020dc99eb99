package handlers

import (
	"errors"

	"onlyfails/internal/logger"
	"onlyfails/internal/services"

	"github.com/gofiber/fiber/v2"
)

// errorResponse maps a service sentinel to its HTTP status and public message.
type errorResponse struct {
	err     error
	status  int
	message string
}

var errorTable = []errorResponse{
	{services.ErrDuplicateEmail, fiber.StatusBadRequest, "Email already registered."},
	{services.ErrDuplicateUsername, fiber.StatusBadRequest, "Username already taken."},
	{services.ErrInvalidCredentials, fiber.StatusBadRequest, "Invalid login credentials."},
	{services.ErrInvalidVoteType, fiber.StatusBadRequest, "Invalid vote type."},
	{services.ErrBanned, fiber.StatusForbidden, "User is banned."},
	{services.ErrAlreadyVoted, fiber.StatusForbidden, "You have already voted on this product."},
	{services.ErrProductNotFound, fiber.StatusNotFound, "Failed product not found."},
	{services.ErrUserNotFound, fiber.StatusNotFound, "User not found."},
	{services.ErrNotFound, fiber.StatusNotFound, "Not found."},
}

// writeError translates err into the JSON error body. Unknown errors are logged
// and reported as a generic 500.
func writeError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Message})
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(fiber.Map{"error": e.message})
		}
	}

	logger.Log.Errorw("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", c.Locals("requestid"),
		"err", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error."})
}

// badBody reports a request body that could not be parsed. Field-level
// decoding errors keep their own message.
func badBody(c *fiber.Ctx, err error) error {
	logger.Log.Debugw("invalid request body", "path", c.Path(), "err", err)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Message})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
}
