package handlers

import (
	"onlyfails/internal/middleware"
	"onlyfails/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for failed products.
type ProductHandler struct {
	service  *services.ProductService
	verifier middleware.TokenVerifier
}

// NewProductHandler creates a new ProductHandler. verifier guards the write
// routes.
func NewProductHandler(service *services.ProductService, verifier middleware.TokenVerifier) *ProductHandler {
	return &ProductHandler{
		service:  service,
		verifier: verifier,
	}
}

// RegisterRoutes registers the failed product routes with the Fiber app.
// Reads are public, catalogue writes need an admin token and voting or
// commenting needs any valid token.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(h.verifier)
	admin := middleware.AdminOnly()

	productRoutes := router.Group("/failed-products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, admin, h.HandleDeleteProduct)
	productRoutes.Post("/:id/vote", auth, h.HandleVote)
	productRoutes.Post("/:id/comment", auth, h.HandleComment)
}

// HandleGetProducts retrieves all failed products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single failed product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a failed product owned by the calling admin.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	product, err := h.service.Create(c.UserContext(), req, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update. Fields outside ProductPatch,
// such as createdBy or the vote counters, are ignored.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req services.ProductPatch
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	product, err := h.service.Update(c.UserContext(), c.Params("id"), req, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a failed product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Failed product deleted successfully."})
}

// VoteRequest is the body of a vote request.
type VoteRequest struct {
	VoteType string `json:"voteType"`
}

// HandleVote records the caller's single vote on a product.
func (h *ProductHandler) HandleVote(c *fiber.Ctx) error {
	var req VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	product, err := h.service.Vote(c.UserContext(), c.Params("id"), middleware.UserID(c), req.VoteType)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// CommentRequest is the body of a comment request.
type CommentRequest struct {
	Text string `json:"text"`
}

// HandleComment appends the caller's comment to a product.
func (h *ProductHandler) HandleComment(c *fiber.Ctx) error {
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	product, err := h.service.Comment(c.UserContext(), c.Params("id"), middleware.UserID(c), req.Text)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}
