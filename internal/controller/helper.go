package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sharetube/embed/internal/bridge"
	"github.com/sharetube/embed/internal/service/embed"
	"github.com/sharetube/embed/pkg/rest"
)

// generateTimeBasedId returns a UUIDv7, which sorts by creation time.
func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, embed.ErrPageNotFound), errors.Is(err, embed.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, embed.ErrDuplicateElement), errors.Is(err, embed.ErrPageConnected):
		return http.StatusConflict
	case errors.Is(err, embed.ErrPageExpired):
		return http.StatusGone
	case errors.Is(err, embed.ErrReservedElementId), errors.Is(err, embed.ErrUnknownToggle):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, bridge.ErrCallFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
		c.writeJSON(w, r, status, rest.Envelope{"error": http.StatusText(status)})
		return
	}

	c.logger.InfoContext(r.Context(), "request failed", "status", status, "error", err)
	c.writeJSON(w, r, status, rest.Envelope{"error": err.Error()})
}

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data rest.Envelope) {
	if err := rest.WriteJSON(w, status, data); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
	}
}

// readValid decodes the body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (c controller) readValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read json", "error", err)
		c.writeJSON(w, r, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		c.logger.InfoContext(r.Context(), "validation failed", "errors", validationErrors)
		c.writeJSON(w, r, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return false
	}

	return true
}
