package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/imaging"
	"github.com/YarinDev/recipe-app-api/internal/repository"
	"github.com/YarinDev/recipe-app-api/internal/storage"
	"github.com/YarinDev/recipe-app-api/internal/validation"
	"github.com/YarinDev/recipe-app-api/pkg/config"
)

var (
	// ErrNotFound is returned for missing recipes and recipes owned by someone else.
	ErrNotFound = errors.New("recipe not found")
	errNoImage  = validation.FieldError("image", "no file was submitted")
	maxPrice    = decimal.NewFromInt(1000)
)

const maxNameLength = 255

// Publisher receives recipe events for the owning user.
type Publisher interface {
	Publish(userID string, event domain.RecipeEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, domain.RecipeEvent) {}

// Service implements recipe workflows.
type Service struct {
	recipes   repository.RecipeRepository
	store     storage.Store
	publisher Publisher
	logger    *slog.Logger
	cfg       config.APIConfig
}

// New constructs a Service. A nil publisher discards events.
func New(recipes repository.RecipeRepository, store storage.Store, publisher Publisher, logger *slog.Logger, cfg config.APIConfig) Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return Service{recipes: recipes, store: store, publisher: publisher, logger: logger, cfg: cfg}
}

// AttributeInput names a tag or ingredient to attach.
type AttributeInput struct {
	Name string `json:"name"`
}

// Input is the full recipe payload used by create and PUT. Nil tag or
// ingredient slices leave the existing links untouched on update.
type Input struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"required,min=0"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Link        string           `json:"link" validate:"omitempty,max=255"`
	Tags        []AttributeInput `json:"tags"`
	Ingredients []AttributeInput `json:"ingredients"`
}

// Patch is a partial recipe update; nil fields are left untouched.
type Patch struct {
	Title       *string          `json:"title" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitempty,min=0"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link" validate:"omitempty,max=255"`
	Tags        []AttributeInput `json:"tags"`
	Ingredients []AttributeInput `json:"ingredients"`
}

// Filter narrows List by tag and ingredient ids.
type Filter struct {
	TagIDs        []string
	IngredientIDs []string
}

// List returns the user's recipes, newest first.
func (s Service) List(ctx context.Context, userID string, filter Filter) ([]domain.Recipe, error) {
	tagIDs, err := parseIDs("tags", filter.TagIDs)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := parseIDs("ingredients", filter.IngredientIDs)
	if err != nil {
		return nil, err
	}
	return s.recipes.ListRecipes(ctx, userID, domain.RecipeFilter{TagIDs: tagIDs, IngredientIDs: ingredientIDs})
}

// Get returns a single recipe owned by userID.
func (s Service) Get(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	if _, err := uuid.Parse(recipeID); err != nil {
		return nil, ErrNotFound
	}
	recipe, err := s.recipes.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// Create stores a recipe for userID, creating missing tags and ingredients.
func (s Service) Create(ctx context.Context, userID string, input Input) (*domain.Recipe, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validation.FieldError("title", "this field may not be blank")
	}
	if err := checkPrice(*input.Price); err != nil {
		return nil, err
	}
	tags, err := attributes(domain.KindTag, input.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, err := attributes(domain.KindIngredient, input.Ingredients)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	recipe := &domain.Recipe{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		TimeMinutes: *input.TimeMinutes,
		Price:       input.Price.Round(2),
		Link:        strings.TrimSpace(input.Link),
		Tags:        tags,
		Ingredients: ingredients,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.recipes.CreateRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	s.logger.Info("recipe created", "user_id", userID, "recipe_id", recipe.ID)
	s.publish(userID, domain.EventRecipeCreated, recipe)
	return recipe, nil
}

// Update replaces every scalar field of a recipe.
func (s Service) Update(ctx context.Context, userID, recipeID string, input Input) (*domain.Recipe, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	return s.Patch(ctx, userID, recipeID, Patch{
		Title:       &input.Title,
		Description: &input.Description,
		TimeMinutes: input.TimeMinutes,
		Price:       input.Price,
		Link:        &input.Link,
		Tags:        input.Tags,
		Ingredients: input.Ingredients,
	})
}

// Patch applies the non-nil fields of patch. Tags and ingredients replace
// the current set when present.
func (s Service) Patch(ctx context.Context, userID, recipeID string, patch Patch) (*domain.Recipe, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, validation.FieldError("title", "this field may not be blank")
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	tags, err := attributes(domain.KindTag, patch.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, err := attributes(domain.KindIngredient, patch.Ingredients)
	if err != nil {
		return nil, err
	}

	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		recipe.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		recipe.Description = *patch.Description
	}
	if patch.TimeMinutes != nil {
		recipe.TimeMinutes = *patch.TimeMinutes
	}
	if patch.Price != nil {
		recipe.Price = patch.Price.Round(2)
	}
	if patch.Link != nil {
		recipe.Link = strings.TrimSpace(*patch.Link)
	}
	links := repository.LinkUpdate{Tags: patch.Tags != nil, Ingredients: patch.Ingredients != nil}
	if links.Tags {
		recipe.Tags = tags
	}
	if links.Ingredients {
		recipe.Ingredients = ingredients
	}
	recipe.UpdatedAt = time.Now().UTC()
	if err := s.recipes.UpdateRecipe(ctx, recipe, links); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.logger.Info("recipe updated", "user_id", userID, "recipe_id", recipe.ID)
	s.publish(userID, domain.EventRecipeUpdated, recipe)
	return recipe, nil
}

// Delete removes a recipe and its stored image.
func (s Service) Delete(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if err := s.recipes.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.removeImage(ctx, recipe.ID, recipe.Image)
	s.logger.Info("recipe deleted", "user_id", userID, "recipe_id", recipeID)
	s.publish(userID, domain.EventRecipeDeleted, recipe)
	return nil
}

// UploadImage stores a new image for the recipe and drops the previous one.
func (s Service) UploadImage(ctx context.Context, userID, recipeID, filename string, r io.Reader) (*domain.Recipe, error) {
	if r == nil {
		return nil, errNoImage
	}
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.ImageMaxBytes
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return nil, validation.FieldError("image", "the submitted file is empty")
	}
	if limit > 0 && int64(len(raw)) > limit {
		return nil, validation.FieldError("image", fmt.Sprintf("file exceeds %d bytes", limit))
	}
	img, err := imaging.Process(bytes.NewReader(raw), imaging.Limits{
		MaxHeight: s.cfg.ImageMaxHeight,
		MaxPixels: s.cfg.ImageMaxPixels,
	})
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
			return nil, validation.FieldError("image", err.Error())
		}
		return nil, err
	}

	key := storage.RecipeImageKey(imageFilename(filename, img.Format))
	if err := s.store.Save(ctx, key, img.ContentType, bytes.NewReader(img.Data)); err != nil {
		return nil, err
	}
	if err := s.recipes.SetRecipeImage(ctx, userID, recipe.ID, key); err != nil {
		s.removeImage(ctx, recipe.ID, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	previous := recipe.Image
	recipe.Image = key
	s.removeImage(ctx, recipe.ID, previous)

	s.logger.Info("recipe image uploaded", "user_id", userID, "recipe_id", recipe.ID, "key", key, "resized", img.Resized)
	s.publish(userID, domain.EventRecipeImageUploaded, recipe)
	return recipe, nil
}

// ImageURL returns the public URL of the recipe image, or "" when unset.
func (s Service) ImageURL(recipe *domain.Recipe) string {
	if recipe == nil || recipe.Image == "" || s.store == nil {
		return ""
	}
	return s.store.URL(recipe.Image)
}

func (s Service) removeImage(ctx context.Context, recipeID, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("delete recipe image", "recipe_id", recipeID, "key", key, "error", err)
	}
}

func (s Service) publish(userID, eventType string, recipe *domain.Recipe) {
	s.publisher.Publish(userID, domain.RecipeEvent{
		Type:       eventType,
		RecipeID:   recipe.ID,
		Title:      recipe.Title,
		OccurredAt: time.Now().UTC(),
	})
}

func checkPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return validation.FieldError("price", "ensure this value is greater than or equal to 0")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return validation.FieldError("price", "ensure that there are no more than 5 digits in total")
	}
	if !price.Equal(price.Truncate(2)) {
		return validation.FieldError("price", "ensure that there are no more than 2 decimal places")
	}
	return nil
}

// attributes trims and de-duplicates names, keeping the first occurrence.
// A nil input yields nil so callers can tell "absent" from "empty".
func attributes(kind domain.AttributeKind, in []AttributeInput) ([]domain.Attribute, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]domain.Attribute, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, validation.FieldError(kind.Plural(), "name may not be blank")
		}
		if len(name) > maxNameLength {
			return nil, validation.FieldError(kind.Plural(), fmt.Sprintf("name has more than %d characters", maxNameLength))
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, domain.Attribute{Kind: kind, Name: name})
	}
	return out, nil
}

func parseIDs(field string, raw []string) ([]string, error) {
	var ids []string
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, validation.FieldError(field, "must be a comma separated list of identifiers")
		}
		ids = append(ids, id.String())
	}
	return ids, nil
}

// imageFilename keeps the client's extension only when it names the decoded
// format; anything else is replaced so stored keys always carry an image type.
func imageFilename(filename, format string) string {
	ext := filepath.Ext(filename)
	if imaging.MatchesExtension(format, ext) {
		return filename
	}
	return strings.TrimSuffix(filename, ext) + imaging.Extension(format)
}
