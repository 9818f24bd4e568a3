package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
)

const recipeColumns = `r.id, r.user_id, r.title, r.description, r.time_minutes, r.price::text, r.link,
	COALESCE(r.image, ''), r.created_at, r.updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ListRecipes returns the user's recipes newest first, optionally limited to
// those carrying any of the requested tags and any of the requested ingredients.
func (r *Repository) ListRecipes(ctx context.Context, userID string, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	const query = `SELECT ` + recipeColumns + `
		FROM recipes r
		WHERE r.user_id = $1
			AND ($2::uuid[] IS NULL OR EXISTS (
				SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($2::uuid[])))
			AND ($3::uuid[] IS NULL OR EXISTS (
				SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($3::uuid[])))
		ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.pool.Query(ctx, query, userID, uuidArray(filter.TagIDs), uuidArray(filter.IngredientIDs))
	if err != nil {
		return nil, translateError(err)
	}
	recipes := make([]domain.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachAttributes(ctx, r.pool, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipe fetches one recipe with its tags and ingredients.
func (r *Repository) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	const query = `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`
	recipe, err := scanRecipe(r.pool.QueryRow(ctx, query, recipeID, userID))
	if err != nil {
		return nil, err
	}
	list := []domain.Recipe{*recipe}
	if err := r.attachAttributes(ctx, r.pool, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// CreateRecipe inserts a recipe and links its attributes, creating any the
// owner does not have yet.
func (r *Repository) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insert = `INSERT INTO recipes (id, user_id, title, description, time_minutes, price, link, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, insert,
		recipe.ID,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price.StringFixed(2),
		recipe.Link,
		nilIfEmpty(recipe.Image),
		recipe.CreatedAt,
		recipe.UpdatedAt,
	); err != nil {
		return translateError(err)
	}
	if err := setLinks(ctx, tx, recipe.ID, recipe.UserID, domain.KindTag, recipe.Tags); err != nil {
		return err
	}
	if err := setLinks(ctx, tx, recipe.ID, recipe.UserID, domain.KindIngredient, recipe.Ingredients); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateRecipe rewrites scalar fields and, when selected, the attribute sets.
func (r *Repository) UpdateRecipe(ctx context.Context, recipe *domain.Recipe, links repository.LinkUpdate) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const update = `UPDATE recipes
		SET title = $3, description = $4, time_minutes = $5, price = $6::numeric, link = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2`
	tag, err := tx.Exec(ctx, update,
		recipe.ID,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price.StringFixed(2),
		recipe.Link,
		recipe.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	if links.Tags {
		if err := setLinks(ctx, tx, recipe.ID, recipe.UserID, domain.KindTag, recipe.Tags); err != nil {
			return err
		}
	}
	if links.Ingredients {
		if err := setLinks(ctx, tx, recipe.ID, recipe.UserID, domain.KindIngredient, recipe.Ingredients); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SetRecipeImage stores the image key of a recipe.
func (r *Repository) SetRecipeImage(ctx context.Context, userID, recipeID, image string) error {
	const query = `UPDATE recipes SET image = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, recipeID, userID, nilIfEmpty(image), time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteRecipe removes a recipe; link rows cascade.
func (r *Repository) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanRecipe(row pgx.Row) (*domain.Recipe, error) {
	var (
		recipe domain.Recipe
		price  string
	)
	if err := row.Scan(&recipe.ID, &recipe.UserID, &recipe.Title, &recipe.Description, &recipe.TimeMinutes,
		&price, &recipe.Link, &recipe.Image, &recipe.CreatedAt, &recipe.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	recipe.Price = parsed
	return &recipe, nil
}

// setLinks replaces the recipe's links of one kind. Attributes are matched
// by name within the owner's namespace and created when missing.
func setLinks(ctx context.Context, tx pgx.Tx, recipeID, userID string, kind domain.AttributeKind, attrs []domain.Attribute) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM `+table.link+` WHERE recipe_id = $1`, recipeID); err != nil {
		return err
	}
	upsert := `INSERT INTO ` + table.name + ` (user_id, name) VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	link := `INSERT INTO ` + table.link + ` (recipe_id, ` + table.column + `) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for i := range attrs {
		if err := tx.QueryRow(ctx, upsert, userID, attrs[i].Name).Scan(&attrs[i].ID); err != nil {
			return translateError(err)
		}
		attrs[i].UserID = userID
		attrs[i].Kind = kind
		if _, err := tx.Exec(ctx, link, recipeID, attrs[i].ID); err != nil {
			return translateError(err)
		}
	}
	return nil
}

func (r *Repository) attachAttributes(ctx context.Context, q querier, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]string, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
	}
	tags, err := loadLinked(ctx, q, domain.KindTag, ids)
	if err != nil {
		return err
	}
	ingredients, err := loadLinked(ctx, q, domain.KindIngredient, ids)
	if err != nil {
		return err
	}
	for i := range recipes {
		recipes[i].Tags = nonNil(tags[recipes[i].ID])
		recipes[i].Ingredients = nonNil(ingredients[recipes[i].ID])
	}
	return nil
}

func loadLinked(ctx context.Context, q querier, kind domain.AttributeKind, recipeIDs []string) (map[string][]domain.Attribute, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT l.recipe_id, a.id, a.user_id, a.name
		FROM ` + table.link + ` l
		INNER JOIN ` + table.name + ` a ON a.id = l.` + table.column + `
		WHERE l.recipe_id = ANY($1::uuid[])
		ORDER BY a.name`
	rows, err := q.Query(ctx, query, recipeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Attribute)
	for rows.Next() {
		var (
			recipeID string
			attr     domain.Attribute
		)
		if err := rows.Scan(&recipeID, &attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, err
		}
		attr.Kind = kind
		out[recipeID] = append(out[recipeID], attr)
	}
	return out, rows.Err()
}

func uuidArray(ids []string) any {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func nonNil(attrs []domain.Attribute) []domain.Attribute {
	if attrs == nil {
		return []domain.Attribute{}
	}
	return attrs
}
