package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
)

// RunService is the coordinator surface the API needs.
type RunService interface {
	Runs(ctx context.Context, state domain.RunState) ([]domain.Run, error)
	Get(ctx context.Context, runID string) (domain.Run, error)
	Resume(ctx context.Context, runID string, approved bool) (domain.Run, error)
	Posted(ctx context.Context, limit int) ([]domain.PostedArticleEntry, error)
}

type RunRouter struct {
	e       *echo.Echo
	service RunService
}

func NewRunRouter(e *echo.Echo, service RunService) *RunRouter {
	return &RunRouter{e: e, service: service}
}

func (r *RunRouter) Bind() {
	r.e.GET("/runs", r.listRuns)
	r.e.GET("/runs/:id", r.getRun)
	r.e.POST("/runs/:id/approve", r.decide(true))
	r.e.POST("/runs/:id/reject", r.decide(false))
	r.e.GET("/posted", r.listPosted)
}

func (r *RunRouter) listRuns(c echo.Context) error {
	state := domain.StateAwaitingApproval
	if name := c.QueryParam("state"); name != "" {
		parsed, ok := domain.ParseRunState(name)
		if !ok {
			return apperr.NewMalformed("unknown run state " + strconv.Quote(name))
		}
		state = parsed
	}

	runs, err := r.service.Runs(c.Request().Context(), state)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runs)
}

func (r *RunRouter) getRun(c echo.Context) error {
	run, err := r.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

func (r *RunRouter) decide(approved bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		run, err := r.service.Resume(c.Request().Context(), c.Param("id"), approved)
		switch {
		case err == nil:
		case run.State == domain.StateFailed && !errors.Is(err, apperr.ErrInvalidTransition):
			// The decision was applied; the run body carries the publishing error.
		default:
			return err
		}
		return c.JSON(http.StatusOK, run)
	}
}

func (r *RunRouter) listPosted(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.NewMalformed("limit must be a positive integer")
		}
		limit = n
	}

	entries, err := r.service.Posted(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
