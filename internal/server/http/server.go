// Package http provides the Echo server and REST handlers for the admin
// console and the public submission endpoint.
package http

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"schoolmedia/internal/logging"
)

// Server is the HTTP server (Echo) with JWT middleware and registered handlers.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger logging.Logger
}

// Handler registers routes on the Echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// NewServer builds the Echo server with recovery, request logging, JWT auth,
// and the given handlers. Login, public submission, and the health probe are
// reachable without a token.
func NewServer(logger logging.Logger, addr, jwtSecret string, handlers ...Handler) *Server {
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", c.RealIP(),
			)
			return nil
		},
	}))
	e.Use(jwtMiddleware(jwtSecret, func(c echo.Context) bool {
		path := c.Request().URL.Path
		return path == "/health" || path == "/api/login" || path == "/api/submissions"
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(204)
	})

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   addr,
		logger: logger.With("module", "http_server"),
	}
}

// Start starts the HTTP server (blocks until shutdown).
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts down the server using the given context.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
