package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/YarinDev/recipe-app-api/internal/service/recipe"
	"github.com/YarinDev/recipe-app-api/internal/validation"
)

const recipesPrefix = "/api/recipe/recipes/"

// handleRecipeRoutes dispatches the collection, detail and upload-image
// endpoints that share the recipes prefix.
func (r *Router) handleRecipeRoutes(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	id, rest := splitID(req.URL.Path, strings.TrimSuffix(recipesPrefix, "/"))
	switch {
	case id == "":
		r.handleRecipeCollection(w, req, info.UserID)
	case rest == "":
		r.handleRecipeDetail(w, req, info.UserID, id)
	case rest == "upload-image":
		r.handleRecipeUpload(w, req, info.UserID, id)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleRecipeCollection(w http.ResponseWriter, req *http.Request, userID string) {
	switch req.Method {
	case http.MethodGet:
		query := req.URL.Query()
		filter := recipe.Filter{
			TagIDs:        splitCSV(query.Get("tags")),
			IngredientIDs: splitCSV(query.Get("ingredients")),
		}
		recipes, err := r.recipes.List(req.Context(), userID, filter)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, r.presentRecipes(recipes))
	case http.MethodPost:
		var payload recipe.Input
		if err := decodeJSON(w, req, &payload); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		created, err := r.recipes.Create(req.Context(), userID, payload)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, r.presentRecipeDetail(created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRecipeDetail(w http.ResponseWriter, req *http.Request, userID, recipeID string) {
	switch req.Method {
	case http.MethodGet:
		rec, err := r.recipes.Get(req.Context(), userID, recipeID)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, r.presentRecipeDetail(rec))
	case http.MethodPut:
		var payload recipe.Input
		if err := decodeJSON(w, req, &payload); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		rec, err := r.recipes.Update(req.Context(), userID, recipeID, payload)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, r.presentRecipeDetail(rec))
	case http.MethodPatch:
		var payload recipe.Patch
		if err := decodeJSON(w, req, &payload); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		rec, err := r.recipes.Patch(req.Context(), userID, recipeID, payload)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, r.presentRecipeDetail(rec))
	case http.MethodDelete:
		if err := r.recipes.Delete(req.Context(), userID, recipeID); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRecipeUpload(w http.ResponseWriter, req *http.Request, userID, recipeID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	decision := r.limiter.Allow("recipe_upload|user:"+userID, rateLimitUpload, rateWindowDefault)
	if !decision.allowed {
		r.applyRateHeaders(w, rateLimitUpload, decision)
		r.recordRateLimitHit("recipe_upload", "user")
		writeError(w, http.StatusTooManyRequests, "request was throttled")
		return
	}
	if r.imageMaxBytes > 0 {
		// Leave room for multipart framing around the file itself.
		req.Body = http.MaxBytesReader(w, req.Body, r.imageMaxBytes+multipartMemory)
	}
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		r.writeServiceError(w, req, validation.FieldError("image", "expected multipart form data"))
		return
	}
	defer func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := req.FormFile("image")
	if err != nil {
		r.writeServiceError(w, req, validation.FieldError("image", "no file was submitted"))
		return
	}
	defer file.Close()

	rec, err := r.recipes.UploadImage(req.Context(), userID, recipeID, header.Filename, file)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeImageResponse{ID: rec.ID, Image: r.imageURL(rec)})
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
