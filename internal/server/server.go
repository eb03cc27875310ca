// =============================================================================
// Billing Note Emitter - HTTP Front-End
// =============================================================================
//
// The HTTP front-end exposes the same pipeline as the command line:
//
//   POST /api/v1/notes      multipart upload -> ZIP of notes and report
//   POST /api/v1/validate   multipart upload -> dataset summary (JSON)
//   GET  /api/v1/templates  available note templates
//   GET  /healthz           liveness
//   GET  /metrics           Prometheus metrics
//
// Each upload is processed inside the request; nothing is kept between
// requests.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/converter"
	"github.com/hube-energy/emissor/internal/logger"
	"github.com/hube-energy/emissor/internal/metrics"
	"github.com/hube-energy/emissor/internal/render"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server serves the note pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	registry *config.Registry
	store    *render.Store
	renderer converter.DocumentRenderer
	metrics  *metrics.Recorder
	logger   *zap.Logger
	version  string
	now      func() time.Time
}

// New creates a server. The renderer is shared by all requests and is not
// closed by the server.
func New(cfg *config.Config, registry *config.Registry, renderer converter.DocumentRenderer, log *zap.Logger, version string) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		store:    render.NewStore(cfg.TemplatesDir, cfg.Encoding, cfg.DefaultTemplate),
		renderer: renderer,
		metrics:  metrics.New(),
		logger:   log,
		version:  version,
		now:      time.Now,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = s.maxUploadBytes()
	router.Use(logger.Recovery(s.logger), logger.GinMiddleware(s.logger))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := router.Group("/api/v1")
	api.POST("/notes", s.generateNotes)
	api.POST("/validate", s.validateDataset)
	api.GET("/templates", s.listTemplates)

	return router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) maxUploadBytes() int64 {
	return s.cfg.Server.MaxUploadMB << 20
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    s.now().Format(time.RFC3339),
		Version: s.version,
	})
}
