// Package webui serves the checkpost dashboard: an HTML front end over the
// report catalog plus JSON twins of every page for scripts.
//
// Routes:
//
//	GET /                   header metrics and report menu
//	GET /browse             latest stops, filtered
//	GET /reports/:id        one catalog report
//	GET /api/reports        catalog listing
//	GET /api/reports/:id    report rows as JSON
//	GET /api/browse         browse rows as JSON
//	GET /api/summary        header metrics as JSON
//	GET /api/options/:col   distinct values for a filter dropdown
//	GET /healthz            sink ping
//	GET /metrics            scrape endpoint, when configured
//
// A failing query only affects the report it belongs to. Pages render the
// error in a banner, the API answers with a JSON error and a status derived
// from the failure.
package webui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkpost/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

// Reports is the read side the dashboard needs. *report.Service satisfies it.
type Reports interface {
	Catalog() *report.Catalog
	Run(ctx context.Context, id string, f report.Filter) (report.Result, error)
	Browse(ctx context.Context, f report.Filter) (report.Result, error)
	Summary(ctx context.Context) (report.Summary, error)
	Distinct(ctx context.Context, column string) ([]string, error)
	Ping(ctx context.Context) error
}

// Config controls server startup.
type Config struct {
	Addr string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	// ShutdownTimeout bounds graceful shutdown. Zero means 10s.
	ShutdownTimeout time.Duration
}

// Server routes dashboard requests to a Reports implementation.
type Server struct {
	cfg    Config
	svc    Reports
	log    *zap.Logger
	engine *gin.Engine
}

// NewServer constructs a Server with routes and embedded templates.
func NewServer(cfg Config, svc Reports, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{cfg: cfg, svc: svc, log: log, engine: gin.New()}

	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(requestLogger(log), recovery(log))
	s.routes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("dashboard listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("dashboard stopped")
	return nil
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/", s.handleIndex)
	r.GET("/browse", s.handleBrowse)
	r.GET("/reports/:id", s.handleReport)

	api := r.Group("/api")
	api.GET("/reports", s.handleAPIReports)
	api.GET("/reports/:id", s.handleAPIReport)
	api.GET("/browse", s.handleAPIBrowse)
	api.GET("/summary", s.handleAPISummary)
	api.GET("/options/:column", s.handleAPIOptions)

	r.GET("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.cfg.Metrics))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// recovery turns a handler panic into a 500. Pool slots are released by the
// service's own deferred calls while the panic unwinds.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Error("handler panic", zap.String("path", c.Request.URL.Path), zap.Any("panic", rec))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

// apiStatus maps a service error onto an HTTP status.
func apiStatus(err error) int {
	switch {
	case errors.Is(err, report.ErrUnknownReport):
		return http.StatusNotFound
	case errors.Is(err, report.ErrBadFilter), errors.Is(err, report.ErrBadColumn):
		return http.StatusBadRequest
	case errors.Is(err, report.ErrPoolExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// pageStatus is apiStatus for HTML pages: a failed query still renders the
// page with a banner.
func pageStatus(err error) int {
	if s := apiStatus(err); s != http.StatusBadGateway {
		return s
	}
	return http.StatusOK
}
