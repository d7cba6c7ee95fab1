package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the orchestration layer.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeDuplicate            = "DUPLICATE"
	CodeInferenceUnavailable = "INFERENCE_UNAVAILABLE"
	CodeBadRequest           = "BAD_REQUEST"
	CodeInternal             = "INTERNAL"
)

// AppError carries an HTTP status, a stable machine-readable code and a
// human-readable message.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails attaches extra context to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates an AppError with an explicit status code
func New(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewNotFound reports an unknown user, character or story.
func NewNotFound(message string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// NewDuplicate reports a write rejected by a uniqueness constraint.
func NewDuplicate(message string) *AppError {
	return New(http.StatusConflict, CodeDuplicate, message)
}

// NewInferenceUnavailable reports a failed call to the inference service.
func NewInferenceUnavailable(message string) *AppError {
	return New(http.StatusBadGateway, CodeInferenceUnavailable, message)
}

// NewBadRequest creates a 400 Bad Request error
func NewBadRequest(message string) *AppError {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// NewInternal creates a 500 Internal Server Error
func NewInternal(message string) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND AppError.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsInferenceUnavailable reports whether err is an INFERENCE_UNAVAILABLE AppError.
func IsInferenceUnavailable(err error) bool {
	return HasCode(err, CodeInferenceUnavailable)
}
