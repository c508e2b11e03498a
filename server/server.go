// Package server assembles the HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/seminote/seminote/internal/profile"
	"github.com/seminote/seminote/server/ai"
	"github.com/seminote/seminote/server/internal/observability"
	apiv1 "github.com/seminote/seminote/server/router/api/v1"
	"github.com/seminote/seminote/server/service/note"
	"github.com/seminote/seminote/server/service/tag"
	"github.com/seminote/seminote/store"
)

type Server struct {
	echoServer *echo.Echo
	profile    *profile.Profile
	store      *store.Store
}

// NewServer wires services and routes into an echo instance. The encoder is
// injected, never global, so tests can substitute a stub.
func NewServer(profile *profile.Profile, st *store.Store, encoder ai.Encoder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.Recover())
	e.Use(requestTimeout(profile.RequestTimeout))
	e.Use(requestLogger())

	tagService := tag.NewService(st)
	noteService := note.NewService(st, tagService, encoder, profile)
	apiv1.NewAPIV1Service(profile, noteService, tagService).Register(e)

	return &Server{
		echoServer: e,
		profile:    profile,
		store:      st,
	}
}

// Echo exposes the underlying instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echoServer
}

// Start blocks until the listener fails or the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server started",
		slog.String("addr", addr),
		slog.String("mode", s.profile.Mode),
		slog.String("version", s.profile.Version))
	return s.echoServer.Start(addr)
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server gracefully", slog.String("error", err.Error()))
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}

// errorHandler renders every error as {"detail": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := "Internal server error."
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		detail = fmt.Sprintf("%v", he.Message)
	} else {
		slog.Error("unhandled request error", slog.String("error", err.Error()))
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(code)
	} else {
		respErr = c.JSON(code, map[string]string{"detail": detail})
	}
	if respErr != nil {
		slog.Error("failed to write error response", slog.String("error", respErr.Error()))
	}
}

// requestTimeout bounds every request, encoder and database round-trips
// included, through context cancellation.
func requestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx := observability.NewRequestContext(slog.Default(), c.Request().Header.Get("X-Owner-ID"))
			c.SetRequest(c.Request().WithContext(
				observability.WithRequestContext(c.Request().Context(), reqCtx)))

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			reqCtx.Info("request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
			return err
		}
	}
}
