package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried by AppError.
const (
	CodeProviderUnavailable     = "PROVIDER_UNAVAILABLE"
	CodeProviderResponseInvalid = "PROVIDER_RESPONSE_INVALID"
	CodeAllProvidersExhausted   = "ALL_PROVIDERS_EXHAUSTED"
	CodeConfig                  = "CONFIG_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrProviderUnavailable is a transport or credential failure of one provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderResponseInvalid is a malformed or empty provider reply.
	ErrProviderResponseInvalid = errors.New("provider response invalid")
	// ErrAllProvidersExhausted is returned when every configured provider failed.
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Unavailable wraps a provider transport failure.
func Unavailable(provider string, err error) error {
	return NewAppError(CodeProviderUnavailable, provider, fmt.Errorf("%w: %w", ErrProviderUnavailable, err))
}

// Invalid reports a provider reply that cannot be used.
func Invalid(provider, reason string) error {
	return NewAppError(CodeProviderResponseInvalid, provider, fmt.Errorf("%w: %s", ErrProviderResponseInvalid, reason))
}

// Exhausted builds the terminal recognition error; last is the final attempt's error.
func Exhausted(lastProvider string, last error) error {
	if last == nil {
		last = errors.New("no providers configured")
	}
	return NewAppError(CodeAllProvidersExhausted, "no provider produced text",
		fmt.Errorf("%w: last error from %s: %w", ErrAllProvidersExhausted, lastProvider, last))
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func UnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus maps a domain error onto a gRPC status error.
func ToStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, ErrAllProvidersExhausted):
		return UnavailableError(err.Error())
	default:
		return InternalError(err.Error())
	}
}
