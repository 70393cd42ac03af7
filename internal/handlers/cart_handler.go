package handlers

import (
	"context"
	"errors"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	service cartApplicationService
}

type cartApplicationService interface {
	List(ctx context.Context, userID string) ([]models.LineItem, error)
	Add(ctx context.Context, userID string, item models.LineItem) error
	Remove(ctx context.Context, userID string, itemID string) error
	Clear(ctx context.Context, userID string) error
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) List(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	items, err := h.service.List(c.Context(), userID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	var item models.LineItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.service.Add(c.Context(), userID, item); err != nil {
		return mapCartError(c, err)
	}
	return h.List(c)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if err := h.service.Remove(c.Context(), userID, c.Params("itemId")); err != nil {
		return mapCartError(c, err)
	}
	return h.List(c)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if err := h.service.Clear(c.Context(), userID); err != nil {
		return mapCartError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapCartError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update cart"})
	}
}
