package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrProvider     = errors.New("provider error")
	ErrInternal     = errors.New("internal error")
)

// AppError carries a sentinel kind plus the message shown to the client.
type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Message string // client-facing message
	Field   string // optional: offending input field
	Cause   error  // optional: underlying error, never shown outside development
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func Validation(message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message}
}

func ValidationField(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// Provider wraps a failure of an upstream service (OTP, object storage).
func Provider(message string, cause error) *AppError {
	return &AppError{Err: ErrProvider, Message: message, Cause: cause}
}

func Internal(cause error) *AppError {
	return &AppError{Err: ErrInternal, Message: "Internal Server Error", Cause: cause}
}

// HTTPStatus maps an error chain to a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Errors that are not
// AppErrors never leak their text.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && !errors.Is(appErr.Err, ErrInternal) {
		return appErr.Message
	}
	return "Internal Server Error"
}
