package service

import "strings"

const (
	fallbackRecipe = "I'm having trouble reaching the AI service right now. In the meantime, try building a " +
		"simple meal from your pantry: pair a protein with a vegetable and a grain, and keep portions " +
		"balanced. Please try again in a moment."
	fallbackWorkout = "I'm having trouble reaching the AI service right now. A safe default is 20 to 30 " +
		"minutes of moderate activity such as brisk walking or bodyweight exercises, with a warm-up and " +
		"cool-down. Please try again in a moment."
	fallbackGeneric = "I'm sorry, I couldn't generate a response right now. Please try again in a moment, " +
		"and check that your API key is configured correctly in your profile."
)

var (
	recipeKeywords  = []string{"recipe", "meal", "cook", "eat", "food"}
	workoutKeywords = []string{"workout", "exercise", "gym", "training"}
)

// FallbackReply picks a reply for a turn whose completion call failed, based
// on what the user asked about.
func FallbackReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, recipeKeywords):
		return fallbackRecipe
	case containsAny(lower, workoutKeywords):
		return fallbackWorkout
	default:
		return fallbackGeneric
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
