// Package server exposes the invoice service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoicehub/internal/invoice"
	"invoicehub/internal/logger"
	"invoicehub/internal/metrics"
	"invoicehub/pkg/models"
)

// InvoiceService is the operation set served over HTTP.
type InvoiceService interface {
	Process(ctx context.Context, up invoice.Upload) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
	Get(ctx context.Context, number string) (*models.Invoice, error)
	DeleteAll(ctx context.Context) (int64, error)
	Summary(ctx context.Context) (*invoice.Summary, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr string

	// StaticDir, when set, is served for every path no API route matches.
	StaticDir string

	ShutdownTimeout time.Duration
}

// Server routes HTTP requests to the invoice service.
type Server struct {
	svc     InvoiceService
	metrics *metrics.Metrics
	opts    Options
	engine  *gin.Engine
	log     zerolog.Logger
}

// New creates a server. m may be nil, in which case nothing is recorded and
// /metrics serves the default prometheus registry.
func New(svc InvoiceService, m *metrics.Metrics, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		svc:     svc,
		metrics: m,
		opts:    opts,
		log:     logger.WithComponent("http"),
	}
	s.engine = s.newEngine()
	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContextMiddleware())
	r.Use(AccessLogMiddleware(s.metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	r.POST("/process-invoice", s.ProcessInvoice)
	r.GET("/invoices", s.ListInvoices)
	r.GET("/invoices/:number", s.GetInvoice)
	r.DELETE("/invoices", s.DeleteInvoices)
	r.GET("/summary", s.Summary)

	if s.opts.StaticDir != "" {
		files := http.FileServer(http.Dir(s.opts.StaticDir))
		r.NoRoute(gin.WrapH(files))
	}

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
