package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	svcErr "github.com/reelmates/reelmates/internal/errors"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func newApiError(status int, msg string) *ApiError {
	return &ApiError{StatusCode: status, Message: msg}
}

func NewBadRequestError(msg string) *ApiError {
	if msg == "" {
		msg = lower(http.StatusText(http.StatusBadRequest))
	}
	return newApiError(http.StatusBadRequest, msg)
}

func NewUnauthorizedError() *ApiError {
	return newApiError(http.StatusUnauthorized, lower(http.StatusText(http.StatusUnauthorized)))
}

func NewForbiddenError() *ApiError {
	return newApiError(http.StatusForbidden, lower(http.StatusText(http.StatusForbidden)))
}

func NewNotFoundError() *ApiError {
	return newApiError(http.StatusNotFound, lower(http.StatusText(http.StatusNotFound)))
}

func NewConflictError(msg string) *ApiError {
	if msg == "" {
		msg = lower(http.StatusText(http.StatusConflict))
	}
	return newApiError(http.StatusConflict, msg)
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

// fromDomainError translates the service error taxonomy into HTTP
// responses. Every distinguishable outcome keeps its own status.
func fromDomainError(err error) *ApiError {
	switch {
	case errors.Is(err, svcErr.ErrValidation):
		return NewBadRequestError(err.Error())
	case errors.Is(err, svcErr.ErrUnauthorized):
		return NewUnauthorizedError()
	case errors.Is(err, svcErr.ErrForbidden):
		return NewForbiddenError()
	case errors.Is(err, svcErr.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, svcErr.ErrRoomFull):
		return NewConflictError("room is full")
	case errors.Is(err, svcErr.ErrConflict):
		return NewConflictError("")
	case errors.Is(err, svcErr.ErrUnconfigured):
		return newApiError(http.StatusServiceUnavailable, "a required dependency is not configured")
	case errors.Is(err, svcErr.ErrTimeout):
		return newApiError(http.StatusGatewayTimeout, "upstream timed out")
	default:
		return NewInternalServerError(err)
	}
}

func lower(s string) string {
	return strings.ToLower(s)
}
