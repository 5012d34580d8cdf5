package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolio/app/internal/demo"
	"portfolio/app/internal/llm"
	"portfolio/app/internal/markdown"
)

// Options configures the HTTP server wiring.
type Options struct {
	DemoService demo.Service
	Renderer    *markdown.Renderer
	// Analyzer backs the sentiment demo; nil disables it.
	Analyzer    llm.SentimentAnalyzer
	Database    *gorm.DB
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	demos       demo.Service
	renderer    *markdown.Renderer
	analyzer    llm.SentimentAnalyzer
	logger      *logrus.Logger
	sentry      *sentry.Hub
	db          *gorm.DB
	rateLimiter *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.DemoService == nil {
		return nil, eris.New("demo service is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Portfolio Demos", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:         api,
		mux:         mux,
		demos:       opts.DemoService,
		renderer:    renderer,
		analyzer:    opts.Analyzer,
		logger:      opts.Logger,
		sentry:      opts.SentryHub,
		db:          opts.Database,
		rateLimiter: NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL),
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.demoMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/site.css", stylesheetHandler)
	s.mux.HandleFunc("HEAD /static/site.css", stylesheetHandler)
	s.mux.Handle("GET /{$}", stdhttp.RedirectHandler("/demos/", stdhttp.StatusFound))

	s.registerDemoListRoute()
	s.registerDemoRoute()
	s.registerDemoSourceRoute()
	s.registerSentimentRoutes()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
