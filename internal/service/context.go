package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/models"
)

const (
	assistantFraming = "You are a personal health and fitness assistant. You help the user plan meals " +
		"from the food they already have and suggest workouts that suit their goals."
	assistantDisclaimer = "Your guidance is general information, not medical advice. Encourage the user " +
		"to consult a qualified professional before major changes to diet or exercise."
	emptyPantryMarker = "No items in pantry."
)

type profileReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, bool, error)
}

type pantryLister interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.PantryItem, error)
}

// ContextAssembler builds the system instruction that grounds the assistant
type ContextAssembler struct {
	profiles profileReader
	pantry   pantryLister
}

// Ensure ContextAssembler implements IContextAssembler
var _ IContextAssembler = (*ContextAssembler)(nil)

// NewContextAssembler creates a new ContextAssembler
func NewContextAssembler(profiles profileReader, pantry pantryLister) *ContextAssembler {
	return &ContextAssembler{profiles: profiles, pantry: pantry}
}

// Assemble reads the profile and pantry concurrently and renders them. A
// failed read is logged and its section rendered as empty.
func (a *ContextAssembler) Assemble(ctx context.Context, userID uuid.UUID) string {
	var (
		profile *models.UserProfile
		items   []models.PantryItem
		g       errgroup.Group
	)

	g.Go(func() error {
		p, _, err := a.profiles.GetProfile(ctx, userID)
		if err != nil {
			logging.Warnw("Failed to load profile for context", "user_id", userID, "error", err)
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		list, err := a.pantry.ListItems(ctx, userID)
		if err != nil {
			logging.Warnw("Failed to load pantry for context", "user_id", userID, "error", err)
			return nil
		}
		items = list
		return nil
	})
	_ = g.Wait()

	return RenderContext(profile, items)
}

// RenderContext is deterministic: the same profile and items always produce
// the same text. profile may be nil.
func RenderContext(profile *models.UserProfile, items []models.PantryItem) string {
	var b strings.Builder
	b.WriteString(assistantFraming)
	b.WriteString("\n")
	b.WriteString(assistantDisclaimer)
	b.WriteString("\n")

	if facts := profileFacts(profile); len(facts) > 0 {
		b.WriteString("\nUser Profile:\n")
		for _, fact := range facts {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nPantry Inventory:\n")
	if len(items) == 0 {
		b.WriteString(emptyPantryMarker)
		b.WriteString("\n")
		return b.String()
	}

	groups := make(map[string][]models.PantryItem)
	for _, item := range items {
		key := CategoryKey(item.Category)
		groups[key] = append(groups[key], item)
	}

	title := cases.Title(language.English)
	for _, category := range categoryOrder(groups) {
		b.WriteString(title.String(category))
		b.WriteString(":\n")
		for _, item := range groups[category] {
			b.WriteString("- ")
			b.WriteString(item.Name)
			if item.Notes != nil && strings.TrimSpace(*item.Notes) != "" {
				b.WriteString(" (")
				b.WriteString(strings.TrimSpace(*item.Notes))
				b.WriteString(")")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func profileFacts(profile *models.UserProfile) []string {
	if profile == nil {
		return nil
	}
	var facts []string
	if v := textValue(profile.HealthGoal); v != "" {
		facts = append(facts, "Health goal: "+v)
	}
	if v := textValue(profile.FitnessLevel); v != "" {
		facts = append(facts, "Fitness level: "+v)
	}
	if len(profile.DietaryPreferences) > 0 {
		facts = append(facts, "Dietary preferences: "+strings.Join(profile.DietaryPreferences, ", "))
	}
	return facts
}

// categoryOrder puts the known categories first in their fixed order and any
// other categories after them alphabetically.
func categoryOrder(groups map[string][]models.PantryItem) []string {
	order := make([]string, 0, len(groups))
	known := make(map[string]bool, len(models.KnownCategories))
	for _, category := range models.KnownCategories {
		known[category] = true
		if _, ok := groups[category]; ok {
			order = append(order, category)
		}
	}

	var extra []string
	for category := range groups {
		if !known[category] {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func textValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
