package dto

import "time"

// CampusStats summarises platform impact.
type CampusStats struct {
	MealsSaved      int64     `json:"mealsSaved"`
	ActiveStudents  int64     `json:"activeStudents"`
	PartnerCanteens int64     `json:"partnerCanteens"`
	TotalFoodItems  int64     `json:"totalFoodItems"`
	FoodWasted      int64     `json:"foodWasted"`
	CompletedClaims int64     `json:"completedClaims"`
	CO2SavedKg      float64   `json:"co2Saved"`
	WaterSavedL     float64   `json:"waterSaved"`
	GeneratedAt     time.Time `json:"generatedAt"`
}
