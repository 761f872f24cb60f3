package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"AINewsAgent/internal/apperr"
)

const gracefulShutdownTimeout = 10 * time.Second

// Server exposes pending runs and the approve/reject decision over HTTP.
type Server struct {
	Echo *echo.Echo

	port   string
	logger *slog.Logger
}

func NewServer(service RunService, port string, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.GlobalErrorHandler()

	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	NewRunRouter(e, service).Bind()

	return &Server{Echo: e, port: port, logger: logger}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Echo.Start(":" + s.port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if s.logger != nil {
		s.logger.Info("approval api listening", "port", s.port)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	return s.Echo.Shutdown(shutdownCtx)
}
