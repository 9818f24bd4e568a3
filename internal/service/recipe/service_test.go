package recipe

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
	"github.com/YarinDev/recipe-app-api/internal/storage"
	"github.com/YarinDev/recipe-app-api/internal/validation"
	"github.com/YarinDev/recipe-app-api/pkg/config"
)

type stubRecipeRepository struct {
	mu         sync.Mutex
	recipes    map[string]domain.Recipe
	lastLinks  repository.LinkUpdate
	lastFilter domain.RecipeFilter
}

func newStubRecipeRepository() *stubRecipeRepository {
	return &stubRecipeRepository{recipes: make(map[string]domain.Recipe)}
}

func (s *stubRecipeRepository) ListRecipes(ctx context.Context, userID string, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	var out []domain.Recipe
	for _, r := range s.recipes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *stubRecipeRepository) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[recipeID]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *stubRecipeRepository) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[recipe.ID] = *recipe
	return nil
}

func (s *stubRecipeRepository) UpdateRecipe(ctx context.Context, recipe *domain.Recipe, links repository.LinkUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recipes[recipe.ID]
	if !ok || existing.UserID != recipe.UserID {
		return repository.ErrNotFound
	}
	s.lastLinks = links
	s.recipes[recipe.ID] = *recipe
	return nil
}

func (s *stubRecipeRepository) SetRecipeImage(ctx context.Context, userID, recipeID, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[recipeID]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	r.Image = image
	s.recipes[recipeID] = r
	return nil
}

func (s *stubRecipeRepository) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[recipeID]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.recipes, recipeID)
	return nil
}

type stubStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string
}

func (s *stubStore) Save(ctx context.Context, key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *stubStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *stubStore) URL(key string) string { return "/media/" + key }

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]domain.RecipeEvent
}

func (p *recordingPublisher) Publish(userID string, event domain.RecipeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
}

type fixture struct {
	svc       Service
	repo      *stubRecipeRepository
	store     *stubStore
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := newStubRecipeRepository()
	store := &stubStore{objects: make(map[string][]byte), types: make(map[string]string)}
	publisher := &recordingPublisher{events: make(map[string][]domain.RecipeEvent)}
	cfg := config.APIConfig{ImageMaxBytes: 1 << 20, ImageMaxHeight: 50}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		svc:       New(repo, store, publisher, logger, cfg),
		repo:      repo,
		store:     store,
		publisher: publisher,
	}
}

func sampleInput() Input {
	minutes := 22
	price := decimal.RequireFromString("5.25")
	return Input{
		Title:       "Sample recipe",
		Description: "Sample description",
		TimeMinutes: &minutes,
		Price:       &price,
		Link:        "http://example.com/recipe.pdf",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCreateRecipeSetsOwner(t *testing.T) {
	f := newFixture(t)
	input := sampleInput()
	input.Tags = []AttributeInput{{Name: "Thai"}, {Name: " Dinner "}, {Name: "Thai"}}
	recipe, err := f.svc.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if recipe.UserID != "user-1" {
		t.Fatalf("expected owner user-1, got %q", recipe.UserID)
	}
	if !recipe.Price.Equal(decimal.RequireFromString("5.25")) {
		t.Fatalf("unexpected price %s", recipe.Price)
	}
	if len(recipe.Tags) != 2 || recipe.Tags[1].Name != "Dinner" {
		t.Fatalf("expected de-duplicated trimmed tags, got %+v", recipe.Tags)
	}
	events := f.publisher.events["user-1"]
	if len(events) != 1 || events[0].Type != domain.EventRecipeCreated || events[0].RecipeID != recipe.ID {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*Input){
		"missing title": func(in *Input) { in.Title = "" },
		"missing time":  func(in *Input) { in.TimeMinutes = nil },
		"negative time": func(in *Input) { v := -1; in.TimeMinutes = &v },
		"missing price": func(in *Input) { in.Price = nil },
		"too precise":   func(in *Input) { p := decimal.RequireFromString("1.005"); in.Price = &p },
		"too large":     func(in *Input) { p := decimal.RequireFromString("1000"); in.Price = &p },
		"long link":     func(in *Input) { in.Link = strings.Repeat("a", 256) },
		"blank tag":     func(in *Input) { in.Tags = []AttributeInput{{Name: "  "}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := sampleInput()
			mutate(&input)
			_, err := f.svc.Create(context.Background(), "user-1", input)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(f.repo.recipes) != 0 {
		t.Fatalf("expected no recipes stored, got %d", len(f.repo.recipes))
	}
}

func TestGetRecipeScopedToOwner(t *testing.T) {
	f := newFixture(t)
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), "user-2", recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), "user-1", "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	got, err := f.svc.Get(context.Background(), "user-1", recipe.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != "Sample description" {
		t.Fatalf("unexpected description %q", got.Description)
	}
}

func TestPatchKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	input := sampleInput()
	input.Tags = []AttributeInput{{Name: "Breakfast"}}
	recipe, err := f.svc.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	title := "New recipe title"
	updated, err := f.svc.Patch(context.Background(), "user-1", recipe.ID, Patch{Title: &title})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if updated.Title != title || updated.Link != input.Link || updated.TimeMinutes != 22 {
		t.Fatalf("unexpected recipe after patch %+v", updated)
	}
	if f.repo.lastLinks.Tags || f.repo.lastLinks.Ingredients {
		t.Fatalf("links should be untouched, got %+v", f.repo.lastLinks)
	}
	if len(updated.Tags) != 1 {
		t.Fatalf("expected tags kept, got %+v", updated.Tags)
	}

	updated, err = f.svc.Patch(context.Background(), "user-1", recipe.ID, Patch{Tags: []AttributeInput{}})
	if err != nil {
		t.Fatalf("Patch tags: %v", err)
	}
	if !f.repo.lastLinks.Tags || len(updated.Tags) != 0 {
		t.Fatalf("expected tags cleared, links=%+v tags=%+v", f.repo.lastLinks, updated.Tags)
	}
}

func TestUpdateReplacesFieldsAndKeepsOwner(t *testing.T) {
	f := newFixture(t)
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	input := sampleInput()
	input.Title = "Full update"
	input.Description = ""
	input.Ingredients = []AttributeInput{{Name: "Salt"}}
	updated, err := f.svc.Update(context.Background(), "user-1", recipe.ID, input)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Full update" || updated.Description != "" || updated.UserID != "user-1" {
		t.Fatalf("unexpected recipe %+v", updated)
	}
	if !f.repo.lastLinks.Ingredients || f.repo.lastLinks.Tags {
		t.Fatalf("unexpected links %+v", f.repo.lastLinks)
	}
	if _, err := f.svc.Update(context.Background(), "user-2", recipe.ID, input); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestListValidatesFilterIDs(t *testing.T) {
	f := newFixture(t)
	tagID := uuid.NewString()
	if _, err := f.svc.List(context.Background(), "user-1", Filter{TagIDs: []string{tagID, ""}}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(f.repo.lastFilter.TagIDs) != 1 || f.repo.lastFilter.TagIDs[0] != tagID {
		t.Fatalf("unexpected filter %+v", f.repo.lastFilter)
	}
	_, err := f.svc.List(context.Background(), "user-1", Filter{IngredientIDs: []string{"abc"}})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Fields["ingredients"] == "" {
		t.Fatalf("expected ingredients validation error, got %v", err)
	}
}

func TestDeleteRemovesImage(t *testing.T) {
	f := newFixture(t)
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	uploaded, err := f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "photo.png", bytes.NewReader(pngBytes(t, 10, 10)))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if err := f.svc.Delete(context.Background(), "user-2", recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), "user-1", recipe.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := f.store.objects[uploaded.Image]; ok {
		t.Fatal("expected image deleted from store")
	}
	if _, ok := f.repo.recipes[recipe.ID]; ok {
		t.Fatal("expected recipe deleted")
	}
}

func TestUploadImageReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "first.png", bytes.NewReader(pngBytes(t, 10, 10)))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if !strings.HasPrefix(first.Image, "uploads/recipe/") || !strings.HasSuffix(first.Image, ".png") {
		t.Fatalf("unexpected key %q", first.Image)
	}
	second, err := f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "second", bytes.NewReader(pngBytes(t, 40, 100)))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if _, ok := f.store.objects[first.Image]; ok {
		t.Fatal("expected previous image removed")
	}
	data, ok := f.store.objects[second.Image]
	if !ok {
		t.Fatal("expected new image stored")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	if img.Bounds().Dy() != 50 || img.Bounds().Dx() != 20 {
		t.Fatalf("expected downscaled 20x50 image, got %v", img.Bounds())
	}
	if got := f.svc.ImageURL(second); got != "/media/"+second.Image {
		t.Fatalf("unexpected url %q", got)
	}
	events := f.publisher.events["user-1"]
	if last := events[len(events)-1]; last.Type != domain.EventRecipeImageUploaded {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestUploadImageRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t)
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "file.jpg", strings.NewReader("notanimage"))
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Fields["image"] == "" {
		t.Fatalf("expected image validation error, got %v", err)
	}
	if len(f.store.objects) != 0 {
		t.Fatal("expected nothing stored")
	}
}

func gifWithTrailer(t *testing.T, trailer string) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	buf.WriteString(trailer)
	return buf.Bytes()
}

func TestUploadImageKeyFollowsDecodedFormat(t *testing.T) {
	f := newFixture(t)
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	payload := gifWithTrailer(t, "<script>alert(document.domain)</script>")
	uploaded, err := f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "evil.html", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasSuffix(uploaded.Image, ".gif") {
		t.Fatalf("expected .gif key for gif payload, got %q", uploaded.Image)
	}
	if ct := f.store.types[uploaded.Image]; ct != "image/gif" {
		t.Fatalf("expected image/gif content type, got %q", ct)
	}

	pngUpload, err := f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "photo.PNG", bytes.NewReader(pngBytes(t, 4, 4)))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasSuffix(pngUpload.Image, ".png") {
		t.Fatalf("expected matching extension kept, got %q", pngUpload.Image)
	}
}

func TestImageFilename(t *testing.T) {
	cases := []struct {
		filename, format, want string
	}{
		{"evil.html", "gif", "evil.gif"},
		{"photo.jpeg", "jpeg", "photo.jpeg"},
		{"photo.JPG", "jpeg", "photo.JPG"},
		{"photo.png", "jpeg", "photo.jpg"},
		{"noext", "png", "noext.png"},
	}
	for _, c := range cases {
		if got := imageFilename(c.filename, c.format); got != c.want {
			t.Fatalf("imageFilename(%q, %q) = %q, want %q", c.filename, c.format, got, c.want)
		}
	}
}

func TestUploadImageRejectsTooManyPixels(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.ImageMaxPixels = 1000
	recipe, err := f.svc.Create(context.Background(), "user-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.svc.UploadImage(context.Background(), "user-1", recipe.ID, "big.png", bytes.NewReader(pngBytes(t, 40, 40)))
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Fields["image"] == "" {
		t.Fatalf("expected image validation error, got %v", err)
	}
	if len(f.store.objects) != 0 {
		t.Fatal("expected nothing stored")
	}
}
