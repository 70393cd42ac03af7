package models

import "time"

type Meal struct {
	Name     string   `json:"name"`
	Time     string   `json:"time,omitempty"`
	Calories int      `json:"calories"`
	Items    []string `json:"items"`
}

type MealDay struct {
	Day   string `json:"day"`
	Meals []Meal `json:"meals"`
}

type MealPlan struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Title         string    `json:"title"`
	Goal          *string   `json:"goal,omitempty"`
	DailyCalories *int      `json:"daily_calories,omitempty"`
	Days          []MealDay `json:"days"`
	CreatedAt     time.Time `json:"created_at"`
}

type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
}

type WorkoutDay struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

type WorkoutPlan struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Title     string       `json:"title"`
	Level     *string      `json:"level,omitempty"`
	Days      []WorkoutDay `json:"days"`
	CreatedAt time.Time    `json:"created_at"`
}

// PlanSummary is the list view shared by meal and workout plans.
type PlanSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
