package repository

import (
	"context"

	"github.com/YarinDev/recipe-app-api/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// LinkUpdate selects which recipe associations an update rewrites.
type LinkUpdate struct {
	Tags        bool
	Ingredients bool
}

// RecipeRepository persists recipes and their tag/ingredient links. Every
// lookup is scoped to the owning user.
type RecipeRepository interface {
	ListRecipes(ctx context.Context, userID string, filter domain.RecipeFilter) ([]domain.Recipe, error)
	GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe, links LinkUpdate) error
	SetRecipeImage(ctx context.Context, userID, recipeID, image string) error
	DeleteRecipe(ctx context.Context, userID, recipeID string) error
}

// AttributeRepository manages tags and ingredients.
type AttributeRepository interface {
	ListAttributes(ctx context.Context, userID string, kind domain.AttributeKind, assignedOnly bool) ([]domain.Attribute, error)
	GetAttribute(ctx context.Context, userID string, kind domain.AttributeKind, id string) (*domain.Attribute, error)
	UpdateAttribute(ctx context.Context, attr *domain.Attribute) error
	DeleteAttribute(ctx context.Context, userID string, kind domain.AttributeKind, id string) error
}
