package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/aiconnectors"
	"github.com/lexi/internal/render"
	"github.com/lexi/internal/workspace"
)

// ServerOptions configures the API server
type ServerOptions struct {
	Port     int
	Registry *workspace.Registry
	Exporter *render.Exporter
	// SessionIdleTimeout drops sessions unused for this long; 0 keeps them forever
	SessionIdleTimeout time.Duration
	// Now dates exported reports
	Now func() time.Time
}

// Server represents the API server
type Server struct {
	echo     *echo.Echo
	port     int
	sessions *workspace.Registry
	exporter *render.Exporter
	idle     time.Duration
	now      func() time.Time
}

// NewServer creates a new API server
func NewServer(opts ServerOptions) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("32M"))

	if opts.Exporter == nil {
		opts.Exporter = render.NewExporter(render.DocumentMarginMM, render.ReportMarginMM)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	server := &Server{
		echo:     e,
		port:     opts.Port,
		sessions: opts.Registry,
		exporter: opts.Exporter,
		idle:     opts.SessionIdleTimeout,
		now:      opts.Now,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	v1.GET("/templates", s.listTemplates)
	v1.GET("/templates/:id", s.getTemplate)

	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.DELETE("/sessions/:id", s.deleteSession)
	v1.POST("/sessions/:id/navigate", s.navigate)
	v1.POST("/sessions/:id/theme/toggle", s.toggleTheme)

	gen := v1.Group("/sessions/:id/generator")
	gen.GET("", s.getGenerator)
	gen.PUT("/fields", s.setField)
	gen.PUT("/details", s.setDetails)
	gen.POST("/submit", s.submitDraft)
	gen.POST("/edit", s.editDraft)
	gen.POST("/dictate", s.dictate)
	gen.GET("/export.pdf", s.exportDocument)

	an := v1.Group("/sessions/:id/analyzer")
	an.GET("", s.getAnalyzer)
	an.PUT("/file", s.selectFile)
	an.DELETE("/file", s.removeFile)
	an.POST("/analyze", s.analyze)
	an.GET("/report.pdf", s.exportReport)

	v1.GET("/sessions/:id/chat", s.getChat)
	v1.POST("/sessions/:id/chat", s.sendChat)

	aiconnectors.RegisterHandlers(v1)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins the API server and blocks until SIGINT, then shuts down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if s.idle > 0 {
		go s.pruneSessions(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.port).Msg("Starting API server")
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(s.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Prune(s.idle)
		}
	}
}
