package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeRemoteAPI       = "REMOTE_API_ERROR"
	CodeRemoteTimeout   = "REMOTE_API_TIMEOUT"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeBusy            = "RESOURCE_BUSY"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewRemoteAPIError wraps a failed upstream call. status is zero for transport failures.
func NewRemoteAPIError(operation string, status int, body string, err error) error {
	details := map[string]any{"operation": operation}
	if status > 0 {
		details["upstream_status"] = status
	}
	switch {
	case body != "":
		details["upstream_detail"] = body
	case err != nil:
		details["upstream_detail"] = err.Error()
	}
	if status == 0 && isTimeout(err) {
		return &DomainError{
			Code:       CodeRemoteTimeout,
			Message:    operation + " timed out",
			HTTPStatus: http.StatusGatewayTimeout,
			Details:    details,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeRemoteAPI,
		Message:    operation + " failed",
		HTTPStatus: http.StatusBadGateway,
		Details:    details,
		Err:        err,
	}
}

// NewRemoteTimeout reports an upstream call that exceeded its deadline.
func NewRemoteTimeout(operation string, err error) error {
	if err == nil {
		err = context.DeadlineExceeded
	}
	return NewRemoteAPIError(operation, 0, "", err)
}

func NewUnsupportedType(mimeType string) error {
	return NewDomainError(CodeUnsupportedType,
		fmt.Sprintf("unsupported document type: %s", mimeType),
		http.StatusUnsupportedMediaType,
		map[string]any{"mime_type": mimeType})
}

// NewBusy reports a resource held by a concurrent request.
func NewBusy(message string, details map[string]any, err error) error {
	return &DomainError{
		Code:       CodeBusy,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    details,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if isTimeout(err) {
		var de *DomainError
		errors.As(NewRemoteTimeout("request", err), &de)
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsTimeout reports whether err is a remote timeout.
func IsTimeout(err error) bool {
	return HasCode(err, CodeRemoteTimeout)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
