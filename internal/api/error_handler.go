package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// statusByKind is the single mapping from domain error kinds to HTTP codes.
// Every kind the services can produce appears here; an unmapped kind falls
// through to 500.
var statusByKind = map[domain.Kind]int{
	domain.KindValidation:            http.StatusBadRequest,
	domain.KindInvalidRoles:          http.StatusBadRequest,
	domain.KindBadCredentials:        http.StatusUnauthorized,
	domain.KindTokenMalformed:        http.StatusUnauthorized,
	domain.KindTokenSignatureInvalid: http.StatusUnauthorized,
	domain.KindTokenNotFound:         http.StatusUnauthorized,
	domain.KindTokenUnusable:         http.StatusUnauthorized,
	domain.KindNotFound:              http.StatusNotFound,
	domain.KindConflict:              http.StatusConflict,
	domain.KindServiceUnavailable:    http.StatusServiceUnavailable,
	domain.KindSyncPending:           http.StatusServiceUnavailable,
	domain.KindStoreUnavailable:      http.StatusInternalServerError,
}

// StatusForKind resolves the HTTP code for a domain error kind.
func StatusForKind(kind domain.Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to deterministic HTTP status codes via statusByKind.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"status": "...", "message": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Status: statusName(code), Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if de.Kind == domain.KindUnknown || de.Kind == domain.KindStoreUnavailable {
			// The wrapped cause may name hosts or collections; log it, hide it.
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("internal error")
			return StatusForKind(de.Kind), "internal server error"
		}
		return StatusForKind(de.Kind), de.Message
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// statusName renders the upper-snake status label used in the error envelope,
// e.g. 503 -> "SERVICE_UNAVAILABLE".
func statusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "INTERNAL_SERVER_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
