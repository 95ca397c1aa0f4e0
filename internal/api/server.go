// Package api hosts the local admin console: a gin server that gates
// navigation on session state and forwards resource operations to the SDK.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MishraAmit1/gajpatiadmin/internal/api/middleware"
	"github.com/MishraAmit1/gajpatiadmin/internal/config"
	"github.com/MishraAmit1/gajpatiadmin/sdk/gajpati"
)

// Server is the local console HTTP server.
type Server struct {
	engine   *gin.Engine
	session  *gajpati.Session
	services *gajpati.Services
	httpSrv  *http.Server

	mu         sync.RWMutex
	requestLog bool
}

// New constructs the console server with its full route table.
func New(cfg *config.Config, session *gajpati.Session, services *gajpati.Services) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:     engine,
		session:    session,
		services:   services,
		requestLog: cfg.RequestLog,
	}
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.ConsolePort),
		Handler: engine,
	}

	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(s.requestLogEnabled))
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	guest := s.engine.Group("/", middleware.GuestOnly(s.session))
	guest.GET(middleware.LoginPath, s.handleLoginSurface)

	s.engine.POST("/session/login", s.handleLogin)
	s.engine.POST("/session/signup", s.handleSignup)
	s.engine.POST("/session/logout", s.handleLogout)
	s.engine.GET("/session", s.handleSession)

	authed := s.engine.Group("/", middleware.RequireAuth(s.session))
	authed.GET(middleware.HomePath, s.handleDashboard)

	panel := authed.Group("/panel")
	s.registerResourceRoutes(panel)
}

// ApplyConfig absorbs a hot-reloaded configuration.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.requestLog = cfg.RequestLog
	s.mu.Unlock()
}

func (s *Server) requestLogEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requestLog
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("console server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}
