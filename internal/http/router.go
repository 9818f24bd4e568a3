package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/YarinDev/recipe-app-api/internal/service/attribute"
	"github.com/YarinDev/recipe-app-api/internal/service/auth"
	"github.com/YarinDev/recipe-app-api/internal/service/recipe"
	"github.com/YarinDev/recipe-app-api/internal/storage"
	"github.com/YarinDev/recipe-app-api/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	auth          auth.Service
	recipes       recipe.Service
	tags          attribute.Service
	ingredients   attribute.Service
	hub           *ws.Hub
	store         storage.Store
	upgrader      websocket.Upgrader
	limiter       RateLimiter
	dbHealth      func(context.Context) error
	mediaURL      string
	imageMaxBytes int64
	corsOrigins   []string

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// Options carries the router's collaborators.
type Options struct {
	Logger        *slog.Logger
	Auth          auth.Service
	Recipes       recipe.Service
	Tags          attribute.Service
	Ingredients   attribute.Service
	Hub           *ws.Hub
	Store         storage.Store
	Limiter       RateLimiter
	DBHealth      func(context.Context) error
	MediaURL      string
	ImageMaxBytes int64
	CORSOrigins   []string
}

const (
	rateWindowDefault    = time.Minute
	rateWindowRealtime   = 30 * time.Second
	rateLimitSignup      = 10
	rateLimitToken       = 20
	rateLimitUserWrite   = 120
	rateLimitUserRead    = 240
	rateLimitUpload      = 30
	rateLimitRealtime    = 30
	healthCheckTimeout   = 2 * time.Second
	sseHeartbeatInterval = 15 * time.Second
	multipartMemory      = 8 << 20
)

// NewRouter assembles routes with dependencies.
func NewRouter(opts Options) *Router {
	r := &Router{
		mux:         http.NewServeMux(),
		logger:      opts.Logger,
		auth:        opts.Auth,
		recipes:     opts.Recipes,
		tags:        opts.Tags,
		ingredients: opts.Ingredients,
		hub:         opts.Hub,
		store:       opts.Store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:       opts.Limiter,
		dbHealth:      opts.DBHealth,
		mediaURL:      normalizePrefix(opts.MediaURL),
		imageMaxBytes: opts.ImageMaxBytes,
		corsOrigins:   opts.CORSOrigins,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the router wrapped with CORS handling.
func (r *Router) Handler() http.Handler {
	origins := r.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	return c.Handler(r)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())

	r.handleExact("/api/user/create/", r.audit(r.withRateLimit("user_create", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleCreateUser)))
	r.handleExact("/api/user/token/", r.audit(r.withRateLimit("user_token", rateLimitToken, rateWindowDefault, rateLimitKeyIP, r.handleToken)))
	r.handleExact("/api/user/token/refresh/", r.audit(r.withRateLimit("user_token_refresh", rateLimitToken, rateWindowDefault, rateLimitKeyIP, r.handleRefresh)))
	r.handleExact("/api/user/me/", r.audit(r.handlerAuthRate("user_me", rateLimitUserWrite, rateWindowDefault, r.handleMe)))
	r.handleExact("/api/user/users/", r.audit(r.handlerAuthRate("user_list", rateLimitUserRead, rateWindowDefault, r.handleUsers)))
	r.handleExact("/api/recipe/events/", r.audit(r.handlerAuthRate("recipe_events", rateLimitRealtime, rateWindowRealtime, r.handleRecipeEvents)))

	recipes := r.audit(r.handlerAuthRate("recipes", rateLimitUserWrite, rateWindowDefault, r.handleRecipeRoutes))
	r.mux.HandleFunc("/api/recipe/recipes", recipes)
	r.mux.HandleFunc("/api/recipe/recipes/", recipes)
	r.registerAttribute(r.tags)
	r.registerAttribute(r.ingredients)

	r.mux.HandleFunc("/ws/recipes", r.audit(r.handlerAuthRate("ws_recipes", rateLimitRealtime, rateWindowRealtime, r.handleRecipesWS)))

	r.mux.HandleFunc("/api/schema", r.audit(r.handleSchema))
	r.mux.HandleFunc("/api/schema/", r.audit(r.handleSchema))
	r.mux.Handle("/api/docs/", httpSwagger.Handler(
		httpSwagger.URL("/api/schema/"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	if r.store != nil && strings.HasPrefix(r.mediaURL, "/") && r.mediaURL != "/" {
		r.mux.HandleFunc(r.mediaURL, r.audit(r.handleMedia))
	}
}

func (r *Router) registerAttribute(svc attribute.Service) {
	kind := svc.Kind()
	if !kind.Valid() {
		return
	}
	base := "/api/recipe/" + kind.Plural() + "/"
	h := r.audit(r.handlerAuthRate(kind.Plural(), rateLimitUserWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
		r.handleAttributeRoutes(w, req, svc, base)
	}))
	r.mux.HandleFunc(strings.TrimSuffix(base, "/"), h)
	r.mux.HandleFunc(base, h)
}

// handleExact serves path with or without its trailing slash. Registering
// the bare form stops ServeMux from redirecting it and dropping the body.
func (r *Router) handleExact(path string, h http.HandlerFunc) {
	bare := strings.TrimSuffix(path, "/")
	r.mux.HandleFunc(bare, h)
	r.mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		if strings.TrimSuffix(req.URL.Path, "/") != bare {
			r.notFound(w)
			return
		}
		h(w, req)
	})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		r.methodNotAllowed(w)
		return
	}
	status := "ok"
	code := http.StatusOK
	checks := map[string]string{}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("database health check failed", "error", err)
			checks["database"] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, routeLabel(req.URL.Path), status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			if info.IsStaff {
				actor = "staff"
			}
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

// splitID extracts the first path segment after prefix and whatever follows.
func splitID(path, prefix string) (string, string) {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if trimmed == "" {
		return "", ""
	}
	id, rest, _ := strings.Cut(trimmed, "/")
	return id, rest
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
