package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatd/pkg/types"
)

// APIVersion is reported by the health endpoint.
const APIVersion = "2.0.0"

// RootMessage is returned by GET /.
const RootMessage = "chatd API is operational"

// chatFailedMessage replaces engine and internal errors in 500 responses.
const chatFailedMessage = "Failed to process chat request"

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Status() types.ModelStatus
	Ready() bool
}

type handlers struct {
	svc Service
	now func() time.Time
}

// NewMux builds the router. Health endpoints respond while the model is
// still loading.
func NewMux(svc Service) http.Handler {
	h := &handlers{svc: svc, now: time.Now}
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(securityHeaders)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         3600,
		}))
	}

	r.Get("/", h.root)
	r.Get("/api/health", h.health)
	r.Get("/status", h.status)
	r.With(inflight("/api/v1/chat/chat")).Post("/api/v1/chat/chat", h.chat)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(svc.Status().Status))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Cache-Control", "no-store, max-age=0")
		hdr.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// chat godoc
// @Summary      Chat with the model
// @Description  Sanitizes the message, runs one generation and returns the cleaned reply.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      types.ChatRequest  true  "Chat request"
// @Success      200      {object}  types.ChatResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      504      {object}  types.ErrorResponse
// @Router       /api/v1/chat/chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Oversized bodies also land here; report them as 400 without size details.
		IncrementChatError("validation")
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start := h.now()
	lvl := requestLogLevel(r)
	if lvl >= LevelDebug {
		z := logger().Debug().Int("chars", len([]rune(req.Message)))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("chat start")
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := h.svc.Chat(ctx, req)
	if err != nil {
		// Client went away: nobody is left to read a response.
		if r.Context().Err() != nil {
			IncrementChatError("canceled")
			logChatEnd(r, lvl, 499, start, err)
			return
		}
		kind, status := errorKind(err)
		if serverBaseCtx.Err() != nil && kind == "internal" {
			kind, status = "unavailable", http.StatusServiceUnavailable
		}
		IncrementChatError(kind)
		msg := err.Error()
		if kind == "internal" || kind == "generation" {
			msg = chatFailedMessage
		}
		writeJSONError(w, status, msg)
		logChatEnd(r, lvl, status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	logChatEnd(r, lvl, http.StatusOK, start, nil)
}

// health godoc
// @Summary      Service health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /api/health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.svc.Ready() {
		status = "ok"
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:      status,
		Timestamp:   float64(h.now().UnixNano()) / 1e9,
		ModelStatus: h.svc.Status(),
		APIVersion:  APIVersion,
	})
}

// status godoc
// @Summary      Model lifecycle status
// @Tags         System
// @Produce      json
// @Success      200  {object}  types.ModelStatus
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.RootResponse{Message: RootMessage})
}
