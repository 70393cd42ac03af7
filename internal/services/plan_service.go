package services

import (
	"context"

	"github.com/freakyfit/freakyfit-api/internal/models"
)

type mealPlanStore interface {
	GetByID(ctx context.Context, planID int64) (*models.MealPlan, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.PlanSummary, error)
}

type workoutPlanStore interface {
	GetByID(ctx context.Context, planID int64) (*models.WorkoutPlan, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.PlanSummary, error)
}

// PlanService serves saved plans read-only. Plans are written by the plan
// generator, never through this service.
type PlanService struct {
	meals    mealPlanStore
	workouts workoutPlanStore
}

func NewPlanService(meals mealPlanStore, workouts workoutPlanStore) *PlanService {
	return &PlanService{meals: meals, workouts: workouts}
}

func (s *PlanService) GetMealPlan(ctx context.Context, userID int64, planID int64) (*models.MealPlan, error) {
	plan, err := s.meals.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrForbidden
	}
	return plan, nil
}

func (s *PlanService) GetWorkoutPlan(ctx context.Context, userID int64, planID int64) (*models.WorkoutPlan, error) {
	plan, err := s.workouts.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrForbidden
	}
	return plan, nil
}

func (s *PlanService) ListMealPlans(ctx context.Context, userID int64) ([]models.PlanSummary, error) {
	return s.meals.ListByUserID(ctx, userID)
}

func (s *PlanService) ListWorkoutPlans(ctx context.Context, userID int64) ([]models.PlanSummary, error) {
	return s.workouts.ListByUserID(ctx, userID)
}
