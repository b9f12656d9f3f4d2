// Package server exposes the upload and chart endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/config"
)

// Options configures a Server.
type Options struct {
	Addr              string
	MaxUploadBytes    int64
	PreviewRows       int
	MaxRows           int
	ChartStyle        chart.Style
	CORSOrigins       []string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// FromConfig maps the global configuration onto server options.
func FromConfig(c *config.Global) Options {
	st := chart.DefaultStyle()
	if c.ChartHeight > 0 {
		st.Height = c.ChartHeight
	}
	return Options{
		Addr:              c.Addr(),
		MaxUploadBytes:    c.MaxUploadBytes(),
		PreviewRows:       c.PreviewRows,
		MaxRows:           c.MaxRows,
		ChartStyle:        st,
		CORSOrigins:       c.CORSAllowedOrigins,
		ReadHeaderTimeout: time.Duration(c.ReadHeaderTimeoutSec) * time.Second,
		ShutdownTimeout:   time.Duration(c.ShutdownTimeoutSec) * time.Second,
	}
}

type Server struct {
	opt    Options
	logger *zap.Logger
	router chi.Router
}

func New(opt Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opt.ChartStyle.Height <= 0 {
		opt.ChartStyle = chart.DefaultStyle()
	}
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = 5
	}
	if opt.ShutdownTimeout <= 0 {
		opt.ShutdownTimeout = 15 * time.Second
	}
	s := &Server{opt: opt, logger: logger.Named("server")}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	if len(s.opt.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: s.opt.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			MaxAge:         900, // 15 mins
		})
		r.Use(c.Handler)
	}

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Post("/upload", s.upload)
	r.Post("/visualize", s.visualize)
	r.Post("/visualize/png", s.visualizePNG)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opt.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opt.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.opt.ReadHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), s.opt.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
