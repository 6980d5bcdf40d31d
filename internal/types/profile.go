package types

import "time"

// ProfileResponse never exposes the stored credential, only whether one is set.
// An absent profile renders with empty fields and a zero UpdatedAt.
type ProfileResponse struct {
	HealthGoal         string     `json:"healthGoal"`
	DietaryPreferences []string   `json:"dietaryPreferences"`
	FitnessLevel       string     `json:"fitnessLevel"`
	HasAPIKey          bool       `json:"hasApiKey"`
	UpdatedAt          *time.Time `json:"updatedAt"`
}
