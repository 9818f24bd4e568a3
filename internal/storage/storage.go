// Package storage persists uploaded recipe images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey rejects keys that escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store saves and serves binary objects under slash separated keys.
type Store interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

const recipeImageDir = "uploads/recipe"

// RecipeImageKey generates a fresh key for an uploaded recipe image,
// keeping the extension of the client supplied filename.
func RecipeImageKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join(recipeImageDir, uuid.NewString()+ext)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// Backend selects and configures a Store.
type Backend struct {
	Kind      string
	MediaRoot string
	MediaURL  string
	S3        S3Options
}

// New builds the store named by b.Kind ("local" or "s3").
func New(b Backend) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(b.Kind)) {
	case "", "local":
		store, err := NewLocalStore(b.MediaRoot, b.MediaURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := NewS3Store(b.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", b.Kind)
	}
}
