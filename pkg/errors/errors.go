package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that handlers can render for clients
// while keeping the underlying cause for logging.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Status returns the HTTP status, defaulting to 500.
func (e *AppError) Status() int {
	if e == nil || e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrPayloadTooLarge rejects form submissions above the body limit.
	ErrPayloadTooLarge = &AppError{
		Code:       "PAYLOAD_TOO_LARGE",
		Message:    "Submission is too large",
		StatusCode: http.StatusRequestEntityTooLarge,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrStorage marks a failure of the entry store or token store.
	ErrStorage = &AppError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "The guestbook is temporarily unavailable",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds an application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest returns ErrBadRequest with a client-facing message.
func NewBadRequest(message string) *AppError {
	cpy := *ErrBadRequest
	cpy.Message = message
	return &cpy
}
