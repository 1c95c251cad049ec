package feature

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HandlerConfig configures the HTTP surface.
type HandlerConfig struct {
	RateLimit      float64
	RateBurst      int
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Handler exposes a Service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes builds the router:
//
//	GET  /health
//	POST /features
//	GET  /features/near?lat=&lon=&radius_m=
//	GET  /features/{id}
//	POST /features/{id}/process?buffer_m=
//	GET  /features/{id}/footprint
func (h *Handler) Routes(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if cfg.RateLimit > 0 {
		r.Use(rateLimiter(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", h.health)
	r.Route("/features", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/near", h.near)
		r.Get("/{id}", h.get)
		r.Post("/{id}/process", h.process)
		r.Get("/{id}/footprint", h.footprint)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		zap.L().Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name *string  `json:"name"`
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, invalid("request body: %v", err))
		return
	}
	if body.Name == nil || body.Lat == nil || body.Lon == nil {
		writeError(w, invalid("name, lat and lon are required"))
		return
	}

	id, err := h.svc.Create(r.Context(), CreateRequest{Name: *body.Name, Lat: *body.Lat, Lon: *body.Lon})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var bufferM *float64
	if raw := r.URL.Query().Get("buffer_m"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, invalid("buffer_m %q is not a number", raw))
			return
		}
		bufferM = &v
	}

	if err := h.svc.Process(r.Context(), chi.URLParam(r, "id"), bufferM); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"processed": true})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) footprint(w http.ResponseWriter, r *http.Request) {
	fp, err := h.svc.Footprint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fp)
}

func (h *Handler) near(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req NearRequest
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"lat", &req.Lat},
		{"lon", &req.Lon},
		{"radius_m", &req.RadiusM},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			writeError(w, invalid("%s is required", p.name))
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, invalid("%s %q is not a number", p.name, raw))
			return
		}
		*p.dst = v
	}

	matches, err := h.svc.Near(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case IsInvalidInput(err):
		return http.StatusUnprocessableEntity
	case IsNotFound(err):
		return http.StatusNotFound
	case IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func rateLimiter(limit float64, burst int) func(http.Handler) http.Handler {
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
