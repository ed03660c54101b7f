// Package http exposes the post-creation endpoint over HTTP.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bluniversal/comments/internal/discussd/service"
	"github.com/bluniversal/comments/pkg/httpx"
	"github.com/bluniversal/comments/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	PostService *service.PostService
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// The extension calls this endpoint cross-origin, so CORS sits in the
	// global chain and answers preflights before routing.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS("POST, OPTIONS"),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	createHandler := &CreateHandler{PostService: r.PostService}
	r.Mux.Handle("POST /{$}",
		httpx.Chain(createHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}
