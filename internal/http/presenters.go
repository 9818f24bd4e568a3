package httpx

import (
	"time"

	"github.com/YarinDev/recipe-app-api/internal/domain"
)

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type adminUserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

type attributeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type recipeResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []attributeResponse `json:"tags"`
	Ingredients []attributeResponse `json:"ingredients"`
	Image       *string             `json:"image"`
}

type recipeDetailResponse struct {
	recipeResponse
	Description string `json:"description"`
}

type recipeImageResponse struct {
	ID    string  `json:"id"`
	Image *string `json:"image"`
}

func presentUser(u *domain.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

func presentAdminUsers(users []domain.User) []adminUserResponse {
	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResponse{
			ID:          u.ID,
			Email:       u.Email,
			Name:        u.Name,
			IsActive:    u.IsActive,
			IsStaff:     u.IsStaff,
			IsSuperuser: u.IsSuperuser,
			CreatedAt:   u.CreatedAt,
		})
	}
	return out
}

func presentAttributes(attrs []domain.Attribute) []attributeResponse {
	out := make([]attributeResponse, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, attributeResponse{ID: a.ID, Name: a.Name})
	}
	return out
}

func (r *Router) presentRecipe(rec *domain.Recipe) recipeResponse {
	return recipeResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price.StringFixed(2),
		Link:        rec.Link,
		Tags:        presentAttributes(rec.Tags),
		Ingredients: presentAttributes(rec.Ingredients),
		Image:       r.imageURL(rec),
	}
}

func (r *Router) presentRecipeDetail(rec *domain.Recipe) recipeDetailResponse {
	return recipeDetailResponse{recipeResponse: r.presentRecipe(rec), Description: rec.Description}
}

func (r *Router) presentRecipes(recipes []domain.Recipe) []recipeResponse {
	out := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, r.presentRecipe(&recipes[i]))
	}
	return out
}

func (r *Router) imageURL(rec *domain.Recipe) *string {
	url := r.recipes.ImageURL(rec)
	if url == "" {
		return nil
	}
	return &url
}
