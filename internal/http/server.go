package http

import (
	"cmp"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ccodesido/zentiumassist-all/internal/core"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DefaultVersion is reported by the health check when Options.Version is
// empty.
const DefaultVersion = "2.0.0"

// Options tunes the middleware chain and the health report.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	// AgentConfigured is reported as ai_service by the health check.
	AgentConfigured bool
	Version         string
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to an http.Server.
type Server struct {
	Records *core.RecordService
	Chat    *core.ChatService
	Store   Pinger
	Logger  *zap.Logger

	AgentConfigured bool
	Version         string

	handler http.Handler
}

// NewServer builds the router and wraps it in the middleware chain:
// request id, access log, panic recovery, CORS, body limit, timeout.
func NewServer(records *core.RecordService, chat *core.ChatService, store Pinger, logger *zap.Logger, opts Options) *Server {
	s := &Server{
		Records:         records,
		Chat:            chat,
		Store:           store,
		Logger:          logger,
		AgentConfigured: opts.AgentConfigured,
		Version:         cmp.Or(opts.Version, DefaultVersion),
	}

	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := s.routes()
	s.handler = chain(r,
		requestID,
		requestLog(logger),
		recovery(logger),
		cors(opts.AllowedOrigins),
		maxBody(opts.MaxBodyBytes),
		timeout(opts.RequestTimeout),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// apiPrefix is prepended to every route except the root health check.
// Routes are registered on the root router rather than a PathPrefix
// subrouter so that a method mismatch reaches MethodNotAllowedHandler.
const apiPrefix = "/api"

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "ruta no encontrada")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "método no permitido")
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := func(path string, h http.HandlerFunc, method string) {
		r.HandleFunc(apiPrefix+path, h).Methods(method)
	}
	api("/health", s.handleHealth, http.MethodGet)

	api("/auth/register", s.handleRegister, http.MethodPost)
	api("/auth/login", s.handleLogin, http.MethodPost)

	api("/professionals/{id}/patients", s.handleListPatients, http.MethodGet)
	api("/professionals/{id}/patients", s.handleCreatePatient, http.MethodPost)
	api("/professionals/{id}/dashboard", s.handleProfessionalDashboard, http.MethodGet)

	api("/patients/{id}/profile", s.handlePatientProfile, http.MethodGet)
	api("/patients/{id}/sessions", s.handlePatientSessions, http.MethodGet)
	api("/patients/{id}/tasks", s.handlePatientTasks, http.MethodGet)

	api("/chat", s.handleQuickChat, http.MethodPost)
	api("/chat/{patientId}/message", s.handleChatMessage, http.MethodPost)
	api("/chat/{patientId}/history", s.handleChatHistory, http.MethodGet)

	api("/sessions", s.handleCreateSession, http.MethodPost)
	api("/sessions/{id}/transcript", s.handleUpdateTranscript, http.MethodPut)

	api("/tasks", s.handleCreateTask, http.MethodPost)
	api("/tasks/{id}/complete", s.handleCompleteTask, http.MethodPut)

	api("/analytics/dashboard", s.handleAnalytics, http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	aiService := "not_configured"
	if s.AgentConfigured {
		aiService = "operational"
	}
	body := map[string]any{
		"status":     "healthy",
		"service":    "zentium-assist",
		"version":    s.Version,
		"timestamp":  time.Now().UTC(),
		"database":   "ok",
		"ai_service": aiService,
	}
	status := http.StatusOK
	if err := s.Store.Ping(r.Context()); err != nil {
		s.Logger.Error("health check: store unreachable", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}
