// Package attribute manages the tags and ingredients users attach to recipes.
package attribute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
	"github.com/YarinDev/recipe-app-api/internal/validation"
)

// ErrNotFound is returned for missing attributes and attributes owned by someone else.
var ErrNotFound = errors.New("not found")

// Service serves one attribute kind.
type Service struct {
	kind   domain.AttributeKind
	attrs  repository.AttributeRepository
	logger *slog.Logger
}

// New constructs a Service for kind.
func New(kind domain.AttributeKind, attrs repository.AttributeRepository, logger *slog.Logger) (Service, error) {
	if !kind.Valid() {
		return Service{}, fmt.Errorf("unknown attribute kind %q", kind)
	}
	return Service{kind: kind, attrs: attrs, logger: logger.With("kind", string(kind))}, nil
}

// Kind reports which attribute kind the service manages.
func (s Service) Kind() domain.AttributeKind { return s.kind }

// ListOptions narrows List.
type ListOptions struct {
	AssignedOnly bool
}

// UpdateInput renames an attribute.
type UpdateInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the user's attributes ordered by name descending.
func (s Service) List(ctx context.Context, userID string, opts ListOptions) ([]domain.Attribute, error) {
	return s.attrs.ListAttributes(ctx, userID, s.kind, opts.AssignedOnly)
}

// Update renames an attribute owned by userID.
func (s Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*domain.Attribute, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	attr, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	attr.Name = input.Name
	if err := s.attrs.UpdateAttribute(ctx, attr); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, validation.FieldError("name", fmt.Sprintf("%s with this name already exists", s.kind))
		}
		return nil, err
	}
	s.logger.Info("attribute updated", "user_id", userID, "id", attr.ID)
	return attr, nil
}

// Delete removes an attribute and unlinks it from every recipe.
func (s Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	if err := s.attrs.DeleteAttribute(ctx, userID, s.kind, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("attribute deleted", "user_id", userID, "id", id)
	return nil
}

func (s Service) get(ctx context.Context, userID, id string) (*domain.Attribute, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	attr, err := s.attrs.GetAttribute(ctx, userID, s.kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return attr, nil
}
