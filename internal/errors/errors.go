package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AppError is a structured application error carrying a machine-readable code.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, preserving the code of an
// existing AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeInternalError
	var appErr *AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code of an AppError anywhere in err's chain, or
// "UNKNOWN" otherwise.
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// Error codes for the research engine.
const (
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeCredential          = "CREDENTIAL_ERROR"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeProvidersExhausted  = "PROVIDERS_EXHAUSTED"
	CodePhaseParse          = "PHASE_PARSE_ERROR"
	CodeSessionRunning      = "SESSION_ALREADY_RUNNING"
	CodeSessionTerminal     = "SESSION_TERMINAL"
)

// ConfigInvalid reports a missing or malformed configuration value.
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// NotFound reports a missing resource.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InvalidInput reports a rejected caller input.
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// CredentialError reports an invalid master key or stored ciphertext. The
// message must never include key material.
func CredentialError(message string, cause error) *AppError {
	return &AppError{Code: CodeCredential, Message: message, Cause: cause}
}

// ProviderUnavailable reports that no configuration exists for a provider kind.
func ProviderUnavailable(kind string) *AppError {
	return New(CodeProviderUnavailable, fmt.Sprintf("no provider configured for kind %q", kind))
}

// ProvidersExhausted reports that every fallback candidate failed, carrying
// the per-candidate failure reasons.
func ProvidersExhausted(reasons []string) *AppError {
	return New(CodeProvidersExhausted,
		fmt.Sprintf("all providers exhausted: %s", strings.Join(reasons, "; ")))
}

// PhaseParseError reports that a provider responded but the content could not
// be parsed into the expected structure. Sample is truncated by the caller.
func PhaseParseError(phase, sample string, cause error) *AppError {
	return &AppError{
		Code:    CodePhaseParse,
		Message: fmt.Sprintf("phase %s returned unparsable response: %q", phase, sample),
		Cause:   cause,
	}
}

// SessionAlreadyRunning rejects enqueueing a session with an outstanding task.
func SessionAlreadyRunning(sessionID string) *AppError {
	return New(CodeSessionRunning, fmt.Sprintf("session %s already has a running task", sessionID))
}

// SessionTerminal rejects executing a session that already reached a terminal
// state under the same task.
func SessionTerminal(sessionID, status string) *AppError {
	return New(CodeSessionTerminal, fmt.Sprintf("session %s is already %s", sessionID, status))
}
