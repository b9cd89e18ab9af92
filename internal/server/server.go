// Package server exposes the HTTP ingest surface (spec §6): health,
// event ingest, approval recording, and broker-consumer control. It is a
// thin adapter — all pipeline semantics live in the orchestrator.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/approvals"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/orchestrator"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/telemetry"
)

var tracer = telemetry.Tracer("github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/server")

const requestTimeout = 30 * time.Second

// ConsumerFactory starts a broker consumer task for the given group/topic
// and returns a stop function. Kept as a function value so Server does not
// need to know about kafka-go's broker.Consumer construction directly.
type ConsumerFactory func(groupID, topic string) (stop func(), err error)

// Server holds the dependencies the HTTP handlers need.
type Server struct {
	router      *chi.Mux
	orch        *orchestrator.Orchestrator
	approvals   *approvals.Store
	consumers   ConsumerFactory
	rateLimiter *RateLimiter
	startTime   time.Time

	consumerMu sync.Mutex
	running    map[string]func()
}

// New builds a Server. rateLimitRPM <= 0 disables ingest-side rate limiting.
func New(orch *orchestrator.Orchestrator, appr *approvals.Store, consumers ConsumerFactory, rateLimitRPM int) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		orch:      orch,
		approvals: appr,
		consumers: consumers,
		startTime: time.Now(),
		running:   make(map[string]func()),
	}
	if rateLimitRPM > 0 {
		s.rateLimiter = NewRateLimiter(rateLimitRPM)
	}
	return s
}

// Routes returns the configured http.Handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MiddlewareWithStatus(tracer))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Middleware)
		}
		r.Post("/ingest", s.handleIngest)
	})

	r.Post("/approve", s.handleApprove)
	r.Post("/consume/start", s.handleConsumeStart)

	return r
}
