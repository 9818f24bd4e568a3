package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
	"github.com/YarinDev/recipe-app-api/internal/storage"
)

type rateLimiterStub struct {
	mu      sync.Mutex
	calls   []rateLimitCall
	allowFn func(key string, limit int, window time.Duration) rateDecision
}

type rateLimitCall struct {
	key    string
	limit  int
	window time.Duration
}

func newRateLimiterStub() *rateLimiterStub {
	return &rateLimiterStub{}
}

func (rl *rateLimiterStub) Allow(key string, limit int, window time.Duration) rateDecision {
	rl.mu.Lock()
	rl.calls = append(rl.calls, rateLimitCall{key: key, limit: limit, window: window})
	fn := rl.allowFn
	rl.mu.Unlock()
	if fn != nil {
		return fn(key, limit, window)
	}
	return rateDecision{allowed: true, count: 1, windowEnd: time.Now().Add(window)}
}

func (rl *rateLimiterStub) Close() {}

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*domain.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.users {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copy := *user
	u.users[user.ID] = &copy
	return nil
}

func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *userRepoStub) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (u *userRepoStub) UpdateUser(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *user
	u.users[user.ID] = &copy
	return nil
}

func (u *userRepoStub) ListUsers(_ context.Context) ([]domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]domain.User, 0, len(u.users))
	for _, user := range u.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// catalogStub backs both the recipe and attribute repositories so that
// assigned_only listings see the links created through recipes.
type catalogStub struct {
	mu      sync.Mutex
	recipes map[string]domain.Recipe
	attrs   map[string]domain.Attribute
}

func newCatalogStub() *catalogStub {
	return &catalogStub{recipes: make(map[string]domain.Recipe), attrs: make(map[string]domain.Attribute)}
}

func (c *catalogStub) resolve(userID string, attrs []domain.Attribute) []domain.Attribute {
	out := make([]domain.Attribute, 0, len(attrs))
	for _, a := range attrs {
		found := false
		for _, existing := range c.attrs {
			if existing.UserID == userID && existing.Kind == a.Kind && existing.Name == a.Name {
				out = append(out, existing)
				found = true
				break
			}
		}
		if !found {
			a.ID = uuid.NewString()
			a.UserID = userID
			c.attrs[a.ID] = a
			out = append(out, a)
		}
	}
	return out
}

func (c *catalogStub) ListRecipes(_ context.Context, userID string, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Recipe
	for _, r := range c.recipes {
		if r.UserID == userID && matches(r.Tags, filter.TagIDs) && matches(r.Ingredients, filter.IngredientIDs) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matches(attrs []domain.Attribute, ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, a := range attrs {
		for _, id := range ids {
			if a.ID == id {
				return true
			}
		}
	}
	return false
}

func (c *catalogStub) GetRecipe(_ context.Context, userID, recipeID string) (*domain.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.recipes[recipeID]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (c *catalogStub) CreateRecipe(_ context.Context, recipe *domain.Recipe) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	recipe.Tags = c.resolve(recipe.UserID, recipe.Tags)
	recipe.Ingredients = c.resolve(recipe.UserID, recipe.Ingredients)
	c.recipes[recipe.ID] = *recipe
	return nil
}

func (c *catalogStub) UpdateRecipe(_ context.Context, recipe *domain.Recipe, links repository.LinkUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if links.Tags {
		recipe.Tags = c.resolve(recipe.UserID, recipe.Tags)
	}
	if links.Ingredients {
		recipe.Ingredients = c.resolve(recipe.UserID, recipe.Ingredients)
	}
	c.recipes[recipe.ID] = *recipe
	return nil
}

func (c *catalogStub) SetRecipeImage(_ context.Context, userID, recipeID, image string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.recipes[recipeID]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	r.Image = image
	c.recipes[recipeID] = r
	return nil
}

func (c *catalogStub) DeleteRecipe(_ context.Context, userID, recipeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.recipes, recipeID)
	return nil
}

func (c *catalogStub) ListAttributes(_ context.Context, userID string, kind domain.AttributeKind, assignedOnly bool) ([]domain.Attribute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Attribute
	for _, a := range c.attrs {
		if a.UserID != userID || a.Kind != kind {
			continue
		}
		if assignedOnly && !c.assigned(a.ID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (c *catalogStub) assigned(id string) bool {
	for _, r := range c.recipes {
		for _, a := range append(append([]domain.Attribute{}, r.Tags...), r.Ingredients...) {
			if a.ID == id {
				return true
			}
		}
	}
	return false
}

func (c *catalogStub) GetAttribute(_ context.Context, userID string, kind domain.AttributeKind, id string) (*domain.Attribute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.attrs[id]
	if !ok || a.UserID != userID || a.Kind != kind {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (c *catalogStub) UpdateAttribute(_ context.Context, attr *domain.Attribute) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[attr.ID] = *attr
	return nil
}

func (c *catalogStub) DeleteAttribute(_ context.Context, userID string, kind domain.AttributeKind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.attrs[id]
	if !ok || a.UserID != userID || a.Kind != kind {
		return repository.ErrNotFound
	}
	delete(c.attrs, id)
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Save(_ context.Context, key, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) URL(key string) string { return "/media/" + key }

type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	status int
	buf    bytes.Buffer
	flush  int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (s *streamRecorder) Header() http.Header {
	return s.header
}

func (s *streamRecorder) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.buf.Write(b)
}

func (s *streamRecorder) WriteHeader(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *streamRecorder) Flush() {
	s.mu.Lock()
	s.flush++
	s.mu.Unlock()
}

func (s *streamRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *streamRecorder) flushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush
}

type noFlushRecorder struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newNoFlushRecorder() *noFlushRecorder {
	return &noFlushRecorder{header: make(http.Header)}
}

func (r *noFlushRecorder) Header() http.Header { return r.header }

func (r *noFlushRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.buf.Write(b)
}

func (r *noFlushRecorder) WriteHeader(status int) { r.status = status }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func parseError(t *testing.T, body string) string {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	v, _ := payload["error"].(string)
	return v
}
