// Package httpserver exposes the assembly voting API over HTTP/JSON.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agora/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	assemblies service.AssemblyService
	voting     service.VotingService
	log        *zap.Logger
	signKey    []byte
}

// New constructs an HTTP server with injected services.
func New(assemblies service.AssemblyService, voting service.VotingService, log *zap.Logger, signKey []byte) *Server {
	return &Server{assemblies: assemblies, voting: voting, log: log, signKey: signKey}
}

// Router builds the route tree. Organizer routes require a bearer token;
// voter routes are called by the web layer, which owns session handling.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireOrganizer)
			r.Post("/assemblies", s.handleCreateAssembly)
			r.Post("/assemblies/{assemblyID}/ballots", s.handleCreateBallot)
			r.Post("/ballots/{ballotID}/tally", s.handleRunTally)
		})

		r.Post("/assemblies/{assemblyID}/attendees", s.handleRegisterAttendee)
		r.Get("/assemblies/{assemblyID}/ballots", s.handleListBallots)

		r.Post("/ballots/{ballotID}/votes", s.handleCastVote)
		r.Get("/ballots/{ballotID}", s.handleBallotState)
		r.Get("/ballots/{ballotID}/tally", s.handleGetTally)
		r.Get("/ballots/{ballotID}/records", s.handleRecords)
		r.Post("/ballots/{ballotID}/verify", s.handleVerify)
	})
	return r
}
