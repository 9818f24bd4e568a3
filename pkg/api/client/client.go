package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Client provides typed access to the recipe API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e APIError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg = strings.Join(parts, "; ")
	}
	if msg == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, msg)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, reader, contentType, token, v)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return extractError(resp.StatusCode, resp.Body)
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(status int, body io.Reader) APIError {
	apiErr := APIError{Status: status}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(payload.Error)
	apiErr.Fields = payload.Fields
	return apiErr
}

// User reflects the profile payload.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenPair is returned by the token endpoint.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Attribute is a tag or ingredient.
type Attribute struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Recipe reflects recipe payloads; Description is only set on detail responses.
type Recipe struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	TimeMinutes int         `json:"time_minutes"`
	Price       string      `json:"price"`
	Link        string      `json:"link"`
	Description string      `json:"description,omitempty"`
	Tags        []Attribute `json:"tags"`
	Ingredients []Attribute `json:"ingredients"`
	Image       *string     `json:"image"`
}

// CreateRecipeInput is the body of a recipe create request.
type CreateRecipeInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	TimeMinutes int         `json:"time_minutes"`
	Price       string      `json:"price"`
	Link        string      `json:"link,omitempty"`
	Tags        []Attribute `json:"tags,omitempty"`
	Ingredients []Attribute `json:"ingredients,omitempty"`
}

// RecipeFilter narrows recipe listings to the given tag and ingredient ids.
type RecipeFilter struct {
	Tags        []string
	Ingredients []string
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, email, password, name string) (User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/user/create/", body, "", &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Token exchanges credentials for a token pair.
func (c *Client) Token(ctx context.Context, email, password string) (TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var tokens TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/user/token/", body, "", &tokens); err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/user/me/", nil, token, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ListRecipes returns the caller's recipes, optionally filtered.
func (c *Client) ListRecipes(ctx context.Context, token string, filter RecipeFilter) ([]Recipe, error) {
	values := url.Values{}
	if len(filter.Tags) > 0 {
		values.Set("tags", strings.Join(filter.Tags, ","))
	}
	if len(filter.Ingredients) > 0 {
		values.Set("ingredients", strings.Join(filter.Ingredients, ","))
	}
	path := "/api/recipe/recipes/"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var recipes []Recipe
	if err := c.do(ctx, http.MethodGet, path, nil, token, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipe fetches one recipe with its description.
func (c *Client) GetRecipe(ctx context.Context, token, recipeID string) (Recipe, error) {
	var rec Recipe
	if err := c.do(ctx, http.MethodGet, "/api/recipe/recipes/"+url.PathEscape(recipeID)+"/", nil, token, &rec); err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

// CreateRecipe creates a recipe for the caller.
func (c *Client) CreateRecipe(ctx context.Context, token string, input CreateRecipeInput) (Recipe, error) {
	var rec Recipe
	if err := c.do(ctx, http.MethodPost, "/api/recipe/recipes/", input, token, &rec); err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

// DeleteRecipe removes a recipe.
func (c *Client) DeleteRecipe(ctx context.Context, token, recipeID string) error {
	return c.do(ctx, http.MethodDelete, "/api/recipe/recipes/"+url.PathEscape(recipeID)+"/", nil, token, nil)
}

// UploadImage attaches an image to a recipe and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, token, recipeID, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}
	var resp struct {
		ID    string  `json:"id"`
		Image *string `json:"image"`
	}
	path := "/api/recipe/recipes/" + url.PathEscape(recipeID) + "/upload-image/"
	if err := c.send(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), token, &resp); err != nil {
		return "", err
	}
	if resp.Image == nil {
		return "", nil
	}
	return *resp.Image, nil
}

// ListTags returns the caller's tags.
func (c *Client) ListTags(ctx context.Context, token string, assignedOnly bool) ([]Attribute, error) {
	return c.listAttributes(ctx, token, "tags", assignedOnly)
}

// ListIngredients returns the caller's ingredients.
func (c *Client) ListIngredients(ctx context.Context, token string, assignedOnly bool) ([]Attribute, error) {
	return c.listAttributes(ctx, token, "ingredients", assignedOnly)
}

func (c *Client) listAttributes(ctx context.Context, token, kind string, assignedOnly bool) ([]Attribute, error) {
	path := "/api/recipe/" + kind + "/"
	if assignedOnly {
		path += "?assigned_only=1"
	}
	var attrs []Attribute
	if err := c.do(ctx, http.MethodGet, path, nil, token, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
