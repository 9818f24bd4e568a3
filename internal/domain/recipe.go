package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is a dish owned by a single user.
type Recipe struct {
	ID          string
	UserID      string
	Title       string
	Description string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Image       string
	Tags        []Attribute
	Ingredients []Attribute
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeFilter narrows a recipe listing. Ids within one dimension are ORed,
// dimensions are ANDed.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// RecipeEvent is pushed to the owner's live subscribers.
type RecipeEvent struct {
	Type       string    `json:"type"`
	RecipeID   string    `json:"recipe_id"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recipe event types.
const (
	EventRecipeCreated       = "recipe.created"
	EventRecipeUpdated       = "recipe.updated"
	EventRecipeDeleted       = "recipe.deleted"
	EventRecipeImageUploaded = "recipe.image_uploaded"
)
