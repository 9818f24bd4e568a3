package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
)

func TestTranslateErrorMapsConstraintCodes(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&pgconn.PgError{Code: "23505"}, repository.ErrConflict},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"}), repository.ErrConflict},
		{&pgconn.PgError{Code: "23503"}, repository.ErrNotFound},
		{&pgconn.PgError{Code: "22P02"}, repository.ErrNotFound},
		{pgx.ErrNoRows, repository.ErrNotFound},
	}
	for _, c := range cases {
		if got := translateError(c.err); !errors.Is(got, c.want) {
			t.Fatalf("translateError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
	if translateError(nil) != nil {
		t.Fatal("expected nil passthrough")
	}
	other := errors.New("boom")
	if got := translateError(other); got != other {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestTableForKnownKinds(t *testing.T) {
	table, err := tableFor(domain.KindIngredient)
	if err != nil {
		t.Fatalf("tableFor: %v", err)
	}
	if table.name != "ingredients" || table.link != "recipe_ingredients" || table.column != "ingredient_id" {
		t.Fatalf("unexpected table %+v", table)
	}
	if _, err := tableFor(domain.AttributeKind("spice")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestUUIDArrayNilWhenEmpty(t *testing.T) {
	if uuidArray(nil) != nil {
		t.Fatal("expected nil for empty filter")
	}
	ids, ok := uuidArray([]string{"a"}).([]string)
	if !ok || len(ids) != 1 {
		t.Fatalf("unexpected array %v", ids)
	}
}
