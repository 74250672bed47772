package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"voice-assistant-backend/internal/config"
	"voice-assistant-backend/internal/intent"
	"voice-assistant-backend/internal/metrics"
	"voice-assistant-backend/internal/store"
	"voice-assistant-backend/internal/types"
)

// maxBodyBytes caps the size of a process-voice request body.
const maxBodyBytes = 1 << 20

// corsMethods lists every method a browser may preflight.
var corsMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// IntentClassifier is the part of the intent service client the relay needs.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (intent.Result, error)
}

// Server is the relay HTTP server.
type Server struct {
	router  *chi.Mux
	cfg     config.Config
	intent  IntentClassifier
	store   store.Store
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewServer wires the relay around already constructed collaborators. Shared
// handles are read-only after this point.
func NewServer(cfg config.Config, classifier IntentClassifier, st store.Store, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: corsMethods,
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	s := &Server{
		router:  r,
		cfg:     cfg,
		intent:  classifier,
		store:   st,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router.Post("/process-voice", s.handleProcessVoice)
}

// Router returns the http.Handler to serve
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.(store.Pinger)
	if !ok {
		s.writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		s.log.Warn("store health check failed", zap.Error(err))
		s.writeJSON(w, http.StatusServiceUnavailable, types.HealthResponse{Status: "degraded", Store: "unreachable"})
		return
	}
	s.writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", Store: "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, detail string) {
	s.writeJSON(w, code, types.ErrorResponse{Detail: detail})
}
