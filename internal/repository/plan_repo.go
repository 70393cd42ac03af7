package repository

import (
	"context"

	"github.com/freakyfit/freakyfit-api/internal/models"
)

type MealPlanRepository struct {
	db DBTX
}

func NewMealPlanRepository(db DBTX) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

func (r *MealPlanRepository) GetByID(ctx context.Context, planID int64) (*models.MealPlan, error) {
	query := `
		SELECT id, user_id, title, goal, daily_calories, days, created_at
		FROM meal_plans
		WHERE id = $1
	`

	var plan models.MealPlan
	err := r.db.QueryRow(ctx, query, planID).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Title,
		&plan.Goal,
		&plan.DailyCalories,
		&plan.Days,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *MealPlanRepository) ListByUserID(ctx context.Context, userID int64) ([]models.PlanSummary, error) {
	query := `
		SELECT id, title, created_at
		FROM meal_plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return listSummaries(ctx, r.db, query, userID)
}

type WorkoutPlanRepository struct {
	db DBTX
}

func NewWorkoutPlanRepository(db DBTX) *WorkoutPlanRepository {
	return &WorkoutPlanRepository{db: db}
}

func (r *WorkoutPlanRepository) GetByID(ctx context.Context, planID int64) (*models.WorkoutPlan, error) {
	query := `
		SELECT id, user_id, title, level, days, created_at
		FROM workout_plans
		WHERE id = $1
	`

	var plan models.WorkoutPlan
	err := r.db.QueryRow(ctx, query, planID).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Title,
		&plan.Level,
		&plan.Days,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *WorkoutPlanRepository) ListByUserID(ctx context.Context, userID int64) ([]models.PlanSummary, error) {
	query := `
		SELECT id, title, created_at
		FROM workout_plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return listSummaries(ctx, r.db, query, userID)
}

func listSummaries(ctx context.Context, db DBTX, query string, userID int64) ([]models.PlanSummary, error) {
	rows, err := db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.PlanSummary, 0)
	for rows.Next() {
		var plan models.PlanSummary
		if err := rows.Scan(&plan.ID, &plan.Title, &plan.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}
