// Package errors provides domain-specific error types for the runtime host.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/tetratelabs/wazero/sys"
)

// ErrNotStarted is returned when an operation needs a runtime context that was
// never acquired or has already been released.
var ErrNotStarted = stdErrors.New("runtime not started")

// ErrorDetail is the structured form of an error, used for log attributes.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// DetailedError is implemented by error types that can describe themselves
// as an ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	if stdErrors.Is(err, ErrNotStarted) {
		return &ErrorDetail{Message: err.Error(), Type: "lifecycle", Code: "not_started"}
	}

	return &ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// LifecycleError represents a failure acquiring or releasing the runtime context.
type LifecycleError struct {
	Err error
	Op  string // "start" or "stop"
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("runtime %s failed: %v", e.Op, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *LifecycleError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "lifecycle", Code: e.Op}
}

// ExportNotFoundError is returned when a guest lacks a required export.
type ExportNotFoundError struct {
	Name string
}

func (e *ExportNotFoundError) Error() string {
	return fmt.Sprintf("guest export %q not found", e.Name)
}

// ToErrorDetail implements DetailedError.
func (e *ExportNotFoundError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "guest", Code: "missing_export"}
}

// CallError represents a failed call into a guest export: a trap, a host
// function failure surfacing through the guest, or a WASI exit.
type CallError struct {
	Err    error
	Export string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call to guest export %q failed: %v", e.Export, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ExitCode reports the guest exit code when the call ended with proc_exit.
func (e *CallError) ExitCode() (uint32, bool) {
	var exitErr *sys.ExitError
	if stdErrors.As(e.Err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// ToErrorDetail implements DetailedError.
func (e *CallError) ToErrorDetail() *ErrorDetail {
	detail := &ErrorDetail{Message: e.Error(), Type: "guest", Code: "trap"}
	if code, ok := e.ExitCode(); ok {
		detail.Code = fmt.Sprintf("exit_%d", code)
	}
	return detail
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *ErrorDetail {
	return &ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}
