package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/service"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/staging"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/store"
	"github.com/aussiebroadwan/bulkinvite/pkg/httpx"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"

	_ "github.com/aussiebroadwan/bulkinvite/api/inviter" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store  store.Store
	Runner *service.Runner
	Stager *staging.Stager

	// Defaults fill the directory settings a submission leaves empty.
	Defaults domain.JobConfig

	// MaxUploadBytes caps a whole submission request body.
	MaxUploadBytes int64
}

func NewRouter(
	buildVersion string,
	st store.Store,
	runner *service.Runner,
	stager *staging.Stager,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:            http.NewServeMux(),
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		logger:         logger,
		store:          st,
		Runner:         runner,
		Stager:         stager,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerJobs()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Bulk Invite Service API
//	@version		0.1.0
//	@description	Reconciles an uploaded recipient list against a remote account directory and sends the missing invitations.
//	@description
//	@description	One job runs at a time. Progress is published as a line-oriented log that ends with a "finished processing" line.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/bulkinvite
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) jobsHandler() *JobsHandler {
	return &JobsHandler{
		Runner:         r.Runner,
		Stager:         r.Stager,
		Jobs:           r.store.Jobs(),
		Defaults:       r.Defaults,
		MaxUploadBytes: r.MaxUploadBytes,
	}
}

func (r *Router) registerPages() {
	h := &PagesHandler{
		Jobs:    r.jobsHandler(),
		Version: r.buildVersion,
	}

	// Upload form and display page - public limit
	r.Mux.Handle("GET /{$}",
		httpx.Chain(http.HandlerFunc(h.HandleForm),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /display_stream",
		httpx.Chain(http.HandlerFunc(h.HandleDisplay),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Form submission carries directory credentials - submit limit
	r.Mux.Handle("POST /{$}",
		httpx.Chain(http.HandlerFunc(h.HandleSubmit),
			httpx.RateLimitByIP(httpx.SubmitLimit),
		),
	)

	// Polled once a second by the display page
	r.Mux.Handle("GET /stream_output",
		httpx.Chain(http.HandlerFunc(h.HandleStreamOutput),
			httpx.RateLimitByIP(httpx.PollLimit),
		),
	)
}

func (r *Router) registerJobs() {
	h := r.jobsHandler()

	r.Mux.Handle("POST /v1/jobs",
		httpx.Chain(http.HandlerFunc(h.HandleSubmit),
			httpx.RateLimitByIP(httpx.SubmitLimit),
		),
	)

	r.Mux.Handle("GET /v1/jobs/current",
		httpx.Chain(http.HandlerFunc(h.HandleCurrent),
			httpx.RateLimitByIP(httpx.PollLimit),
		),
	)
	r.Mux.Handle("GET /v1/jobs/current/progress",
		httpx.Chain(http.HandlerFunc(h.HandleProgress),
			httpx.RateLimitByIP(httpx.PollLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/jobs/current",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			httpx.RateLimitByIP(httpx.SubmitLimit),
		),
	)

	r.Mux.Handle("GET /v1/jobs",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PollLimit),
		),
	)
	r.Mux.Handle("GET /v1/jobs/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PollLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Stager),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
