package httpx

import (
	"net/http"
	"strings"

	"github.com/YarinDev/recipe-app-api/internal/service/attribute"
)

func (r *Router) handleAttributeRoutes(w http.ResponseWriter, req *http.Request, svc attribute.Service, base string) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	id, rest := splitID(req.URL.Path, strings.TrimSuffix(base, "/"))
	if rest != "" {
		r.notFound(w)
		return
	}
	if id == "" {
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		opts := attribute.ListOptions{AssignedOnly: truthy(req.URL.Query().Get("assigned_only"))}
		attrs, err := svc.List(req.Context(), info.UserID, opts)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, presentAttributes(attrs))
		return
	}

	switch req.Method {
	case http.MethodPut, http.MethodPatch:
		var payload attribute.UpdateInput
		if err := decodeJSON(w, req, &payload); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		attr, err := svc.Update(req.Context(), info.UserID, id, payload)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, attributeResponse{ID: attr.ID, Name: attr.Name})
	case http.MethodDelete:
		if err := svc.Delete(req.Context(), info.UserID, id); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		r.methodNotAllowed(w)
	}
}

// truthy mirrors the 0/1 flags the list endpoints accept.
func truthy(v string) bool {
	switch v {
	case "1", "true", "True", "yes":
		return true
	}
	return false
}
