package controller

import (
	"errors"
	"net/http"

	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/rest"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

type errorBody struct {
	Code    string                      `json:"code"`
	Message string                      `json:"message"`
	Errors  []validator.ValidationError `json:"errors,omitempty"`
}

func classifyError(err error) (int, string) {
	var validationErrors validator.Errors

	switch {
	case errors.As(err, &validationErrors):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrContentNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, room.ErrPermissionDenied):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, room.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, room.ErrNoAdjacentEpisode):
		return http.StatusConflict, "NO_ADJACENT_EPISODE"
	case errors.Is(err, room.ErrEmptyContent):
		return http.StatusUnprocessableEntity, "EMPTY_CONTENT"
	case errors.Is(err, room.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, room.ErrInvalidParams),
		errors.Is(err, wsrouter.ErrInvalidMessage),
		errors.Is(err, wsrouter.ErrInvalidPayload),
		errors.Is(err, wsrouter.ErrUnknownMessageType):
		return http.StatusBadRequest, "BAD_REQUEST"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func newErrorBody(err error) (int, errorBody) {
	status, code := classifyError(err)
	body := errorBody{Code: code, Message: err.Error()}

	var validationErrors validator.Errors
	if errors.As(err, &validationErrors) {
		body.Errors = validationErrors
	}

	if status == http.StatusInternalServerError {
		body.Message = "internal server error"
	}

	return status, body
}

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := newErrorBody(err)
	if status >= http.StatusInternalServerError {
		c.logger.WarnContext(r.Context(), "request failed", "error", err)
	} else {
		c.logger.DebugContext(r.Context(), "request rejected", "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": body})
}
