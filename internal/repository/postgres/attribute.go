package postgres

import (
	"context"
	"fmt"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
)

type attributeTable struct {
	name   string
	link   string
	column string
}

var attributeTables = map[domain.AttributeKind]attributeTable{
	domain.KindTag:        {name: "tags", link: "recipe_tags", column: "tag_id"},
	domain.KindIngredient: {name: "ingredients", link: "recipe_ingredients", column: "ingredient_id"},
}

func tableFor(kind domain.AttributeKind) (attributeTable, error) {
	table, ok := attributeTables[kind]
	if !ok {
		return attributeTable{}, fmt.Errorf("unknown attribute kind %q", kind)
	}
	return table, nil
}

// ListAttributes returns the user's tags or ingredients ordered by name
// descending. assignedOnly keeps those linked to at least one recipe.
func (r *Repository) ListAttributes(ctx context.Context, userID string, kind domain.AttributeKind, assignedOnly bool) ([]domain.Attribute, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT a.id, a.user_id, a.name
		FROM ` + table.name + ` a
		WHERE a.user_id = $1
			AND (NOT $2 OR EXISTS (SELECT 1 FROM ` + table.link + ` l WHERE l.` + table.column + ` = a.id))
		ORDER BY a.name DESC, a.id`
	rows, err := r.pool.Query(ctx, query, userID, assignedOnly)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	attrs := make([]domain.Attribute, 0)
	for rows.Next() {
		attr := domain.Attribute{Kind: kind}
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, rows.Err()
}

// GetAttribute fetches a single tag or ingredient owned by the user.
func (r *Repository) GetAttribute(ctx context.Context, userID string, kind domain.AttributeKind, id string) (*domain.Attribute, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, name FROM ` + table.name + ` WHERE id = $1 AND user_id = $2`
	attr := domain.Attribute{Kind: kind}
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
		return nil, translateError(err)
	}
	return &attr, nil
}

// UpdateAttribute renames a tag or ingredient.
func (r *Repository) UpdateAttribute(ctx context.Context, attr *domain.Attribute) error {
	table, err := tableFor(attr.Kind)
	if err != nil {
		return err
	}
	query := `UPDATE ` + table.name + ` SET name = $3 WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, attr.ID, attr.UserID, attr.Name)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteAttribute removes a tag or ingredient and detaches it from recipes.
func (r *Repository) DeleteAttribute(ctx context.Context, userID string, kind domain.AttributeKind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table.name+` WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
