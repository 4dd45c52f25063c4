// internal/api/server.go

// Package api exposes the control plane and the record stream over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/gate"
	"github.com/k13114/ifsmurd/internal/message"
	"github.com/k13114/ifsmurd/internal/observability"
	"github.com/k13114/ifsmurd/internal/serialport"
	"github.com/k13114/ifsmurd/internal/session"
	"github.com/k13114/ifsmurd/internal/status"
)

// Controller is the session surface the API drives.
type Controller interface {
	OpenPort(name string, baud int) error
	ClosePort() error
	StartGate() error
	StopGate() error
	StartIngestion() error
	StopIngestion() error
	SetRunning(run bool) error
	Command(ctx context.Context, name string) error
	Subscribe() (*broadcast.Subscription[message.Record], error)
	State() session.State
}

type Options struct {
	Controller  Controller
	DefaultBaud int

	// Ports lists serial ports; serialport.List when nil.
	Ports func() ([]serialport.Info, error)
	// Link returns the current link status; omitted from /api/status when nil.
	Link func() status.Snapshot

	Logger zerolog.Logger
}

type Server struct {
	opts   Options
	router *gin.Engine
	log    zerolog.Logger
}

func New(opts Options) *Server {
	if opts.Ports == nil {
		opts.Ports = serialport.List
	}

	s := &Server{
		opts:   opts,
		router: gin.New(),
		log:    opts.Logger.With().Str("component", "api").Logger(),
	}

	s.router.Use(gin.Recovery(), observability.RequestLogger(s.log), observability.RequestMetrics())
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/ports", s.listPorts)
	api.GET("/status", s.getStatus)

	api.POST("/session/port", s.openPort)
	api.DELETE("/session/port", s.lifecycle(s.opts.Controller.ClosePort))
	api.POST("/session/gate", s.lifecycle(s.opts.Controller.StartGate))
	api.DELETE("/session/gate", s.lifecycle(s.opts.Controller.StopGate))
	api.POST("/session/ingestion", s.lifecycle(s.opts.Controller.StartIngestion))
	api.DELETE("/session/ingestion", s.lifecycle(s.opts.Controller.StopIngestion))

	api.PUT("/gate", s.setGate)
	api.POST("/commands/:name", s.command)
	api.GET("/records", s.streamRecords)
}

// fail maps control plane errors to HTTP statuses.
func fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrPortNotSelected),
		errors.Is(err, session.ErrBadBaudRate),
		errors.Is(err, session.ErrUnknownCommand):
		code = http.StatusBadRequest
	case errors.Is(err, session.ErrPortActive),
		errors.Is(err, session.ErrGateActive),
		errors.Is(err, session.ErrIngestionActive),
		errors.Is(err, session.ErrNoIngestion),
		errors.Is(err, session.ErrMissingPort),
		errors.Is(err, session.ErrMissingGate),
		errors.Is(err, session.ErrMissingChannel),
		errors.Is(err, broadcast.ErrClosed),
		errors.Is(err, gate.ErrClosed):
		code = http.StatusConflict
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
