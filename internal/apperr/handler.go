package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func GlobalErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var me *MalformedInputError
		if errors.As(err, &me) {
			_ = c.JSON(http.StatusBadRequest, map[string]string{"error": me.Message, "title": "malformed input"})
			return
		}

		if errors.Is(err, ErrRunNotFound) {
			_ = c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}

		if errors.Is(err, ErrInvalidTransition) {
			_ = c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := fmt.Sprintf("%v", he.Message)
			_ = c.JSON(he.Code, map[string]string{"error": msg})
			return
		}

		slog.Error("Unhandled error", "error", err)
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
