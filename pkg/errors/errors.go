// Package errors provides structured error handling for LocLint.
// It implements coded errors with context, causes, and stack traces.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Configuration errors (1xx) — fatal before a run starts
	CodeBadConfig       Code = "E101"
	CodeRelativeTempDir Code = "E102"
	CodeBadReference    Code = "E103"

	// Rule build errors (2xx) — fatal to the rule set, not the run
	CodeBuildFailed    Code = "E201"
	CodeMissingExport  Code = "E202"
	CodeBadRuleBundle  Code = "E203"
	CodeModuleNotFound Code = "E204"

	// Data source errors (3xx)
	CodeSourceNotFound    Code = "E301"
	CodeSourceInit        Code = "E302"
	CodeSourceNotOpened   Code = "E303"
	CodeSourceParseFailed Code = "E304"

	// Classification errors (4xx)
	CodeTypeMismatch      Code = "E401"
	CodePropertyNotFound  Code = "E402"
	CodeRulePanic         Code = "E403"
	CodeEmptyVerdict      Code = "E404"
	CodeUnsupportedObject Code = "E405"

	// Output errors (5xx)
	CodeWriteFailed  Code = "E501"
	CodeSinkFinished Code = "E502"
	CodeUploadFailed Code = "E503"

	// Unknown
	CodeUnknown Code = "E999"
)

// Error is the base error type for all LocLint errors.
type Error struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// captureStack captures the current stack trace.
func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// FormatStack returns a formatted stack trace.
func (e *Error) FormatStack() string {
	var sb strings.Builder
	for _, f := range e.StackTrace {
		sb.WriteString(fmt.Sprintf("  at %s\n    %s:%d\n", f.Function, f.File, f.Line))
	}
	return sb.String()
}

// --- Convenience constructors ---

// SourceNotFound creates a data-source not found error.
func SourceNotFound(typeName string, location interface{}) *Error {
	return New(CodeSourceNotFound, "data source not found").
		WithContext("type", typeName).
		WithContext("location", location)
}

// SourceInit wraps a data-source creation failure with the requested
// type and location.
func SourceInit(err error, typeName string, location interface{}) *Error {
	return Wrap(err, CodeSourceInit, "data source initialization failed").
		WithContext("type", typeName).
		WithContext("location", location)
}

// TypeMismatch creates a package/adapter structural mismatch error.
func TypeMismatch(detail string, want, got interface{}) *Error {
	return New(CodeTypeMismatch, detail).
		WithContext("want", want).
		WithContext("got", got)
}

// RelativeTempDir creates a fatal configuration error for a non-rooted
// build directory.
func RelativeTempDir(path string) *Error {
	return New(CodeRelativeTempDir, "build directory must be an absolute path").
		WithContext("path", path)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return CodeUnknown
}

// IsFatal returns true if the error is unrecoverable for the whole run.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeBadConfig, CodeRelativeTempDir, CodeBadReference:
		return true
	default:
		return false
	}
}

// MultiError collects multiple errors into one, preserving order.
// The rule builder uses it to surface every diagnostic of a failed
// build together rather than just the first.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, err.Error()))
	}
	return sb.String()
}

// Append adds an error, ignoring nils.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors reports whether any error was collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ErrorOrNil returns the MultiError if it holds anything, else nil.
func (m *MultiError) ErrorOrNil() error {
	if m.HasErrors() {
		return m
	}
	return nil
}
