package handlers

import (
	"context"
	"strconv"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PlanHandler struct {
	service planApplicationService
}

type planApplicationService interface {
	GetMealPlan(ctx context.Context, userID int64, planID int64) (*models.MealPlan, error)
	GetWorkoutPlan(ctx context.Context, userID int64, planID int64) (*models.WorkoutPlan, error)
	ListMealPlans(ctx context.Context, userID int64) ([]models.PlanSummary, error)
	ListWorkoutPlans(ctx context.Context, userID int64) ([]models.PlanSummary, error)
}

func NewPlanHandler(service *services.PlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

func (h *PlanHandler) GetMealPlan(c *fiber.Ctx) error {
	userID, planID, ok := h.planRequest(c)
	if !ok {
		return planNotFound(c)
	}
	plan, err := h.service.GetMealPlan(c.Context(), userID, planID)
	if err != nil {
		return planNotFound(c)
	}
	return c.JSON(fiber.Map{"success": true, "data": plan})
}

func (h *PlanHandler) GetWorkoutPlan(c *fiber.Ctx) error {
	userID, planID, ok := h.planRequest(c)
	if !ok {
		return planNotFound(c)
	}
	plan, err := h.service.GetWorkoutPlan(c.Context(), userID, planID)
	if err != nil {
		return planNotFound(c)
	}
	return c.JSON(fiber.Map{"success": true, "data": plan})
}

func (h *PlanHandler) ListMealPlans(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid token"})
	}
	plans, err := h.service.ListMealPlans(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to fetch plans"})
	}
	return c.JSON(fiber.Map{"success": true, "data": plans})
}

func (h *PlanHandler) ListWorkoutPlans(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid token"})
	}
	plans, err := h.service.ListWorkoutPlans(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to fetch plans"})
	}
	return c.JSON(fiber.Map{"success": true, "data": plans})
}

func (h *PlanHandler) planRequest(c *fiber.Ctx) (int64, int64, bool) {
	userID, err := parseUserID(c)
	if err != nil {
		return 0, 0, false
	}
	planID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || planID <= 0 {
		return 0, 0, false
	}
	return userID, planID, true
}

// Every failure reads as not found so plan ids of other users are not
// revealed.
func planNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Plan not found"})
}
