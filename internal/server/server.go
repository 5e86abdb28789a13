// Package server is the daemon's HTTP status and control surface.
//
// Ownership boundary:
// - gin engine setup (recovery, request logging, metrics, CORS)
//
// - JSON/YAML views of workbench state and documents
//
// - the websocket event stream
//
// Editing requests go through the workbench, which runs them on its
// editing goroutine.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/ndefsync/internal/auth"
	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/observability"
	"github.com/danmuck/ndefsync/internal/workbench"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Name           string
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
	ShutdownGrace  time.Duration
	// ControlToken, when set, is required as a bearer token on every
	// request that changes state.
	ControlToken string
}

func DefaultConfig() Config {
	return Config{
		Name:           "ndefsyncd",
		Addr:           ":9400",
		RequestTimeout: 5 * time.Second,
		ShutdownGrace:  5 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = d.ShutdownGrace
	}
	return c
}

type Server struct {
	cfg      Config
	bench    *workbench.Workbench
	router   *gin.Engine
	upgrader websocket.Upgrader
	started  time.Time
}

func New(cfg Config, bench *workbench.Workbench) *Server {
	cfg = cfg.WithDefaults()
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", observability.RequestIDHeader},
		ExposeHeaders: []string{observability.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	if cfg.ControlToken != "" {
		r.Use(controlGuard(auth.StaticToken{Token: cfg.ControlToken}))
	}

	s := &Server{
		cfg:     cfg,
		bench:   bench,
		router:  r,
		started: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve listens on the configured address until ctx is done, then shuts
// down within the grace period.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logs.Infof("server.Serve name=%s addr=%s", s.cfg.Name, s.cfg.Addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Warnf("server.Serve shutdown err=%v", err)
		return err
	}
	logs.Infof("server.Serve stopped name=%s", s.cfg.Name)
	return nil
}

// controlGuard rejects state-changing requests without a valid token.
func controlGuard(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if err := auth.CheckHeader(v, c.GetHeader("Authorization")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
