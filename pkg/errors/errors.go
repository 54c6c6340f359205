// Package errors defines the typed error model for the FTE grid pipeline.
//
// Every fatal condition in the pipeline is represented as a *PipelineError
// carrying a category, a specific code, a human-readable message and an
// optional suggestion. Components return these errors instead of
// terminating the process; only the CLI entry point translates them into
// an exit code. This keeps fatal paths testable.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors.
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories.
type ErrorCode string

const (
	// File errors
	CodeFileNotFound     ErrorCode = "file_not_found"
	CodeUnknownExtension ErrorCode = "unknown_extension"
	CodeFileUnreadable   ErrorCode = "file_unreadable"
	CodeWriteFailed      ErrorCode = "write_failed"

	// Parse errors
	CodeMissingColumn  ErrorCode = "missing_column"
	CodeMissingSheet   ErrorCode = "missing_sheet"
	CodeInvalidAmount  ErrorCode = "invalid_amount"
	CodeInvalidDate    ErrorCode = "invalid_date"
	CodeMissingSection ErrorCode = "missing_section"

	// Validation errors
	CodeRowCountMismatch    ErrorCode = "row_count_mismatch"
	CodeDuplicateMappingKey ErrorCode = "duplicate_mapping_key"
	CodeUnmatchedDepartment ErrorCode = "unmatched_department"

	// Configuration errors
	CodeUnknownMappingKind ErrorCode = "unknown_mapping_kind"
	CodeAmbiguousFCCode    ErrorCode = "ambiguous_fc_code"
	CodeMissingFCCode      ErrorCode = "missing_fc_code"
	CodeInvalidConfig      ErrorCode = "invalid_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// PipelineError is the base error type for all application errors.
type PipelineError struct {
	Category   ErrorCategory
	Code       ErrorCode
	Message    string
	Suggestion string
	Context    Context
	Cause      error
	StackTrace errors.StackTrace
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns the process exit code appropriate for the error.
func (e *PipelineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error.
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestion = suggestion
	return e
}

// FormatContext renders the context map for diagnostics output.
func (e *PipelineError) FormatContext() string {
	if len(e.Context) == 0 {
		return ""
	}
	var parts []string
	for k, v := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}

// stackTracer is the interface pkg/errors exposes for stack extraction.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new PipelineError.
func New(category ErrorCategory, code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with PipelineError context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}
	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// FileError creates a file-related error.
func FileError(code ErrorCode, path string, err error) *PipelineError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeUnknownExtension:
		message = fmt.Sprintf("unrecognized file extension: %s", path)
		suggestion = "supported input formats are .csv, .xlsx and .xls"
	case CodeFileUnreadable:
		message = fmt.Sprintf("file is not readable: %s", path)
		suggestion = "check file permissions and ensure the file is not locked"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write output file: %s", path)
		suggestion = "ensure the output directory exists and is writable"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error for tabular input.
func ParseError(code ErrorCode, source, detail string, err error) *PipelineError {
	var message, suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in %s", detail, source)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeMissingSheet:
		message = fmt.Sprintf("missing required sheet '%s' in %s", detail, source)
		suggestion = "verify the workbook contains the expected mapping sheets"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid FTE amount '%s' in %s", detail, source)
		suggestion = "ensure FTE counts are valid decimal numbers (e.g. '12.5')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid period value '%s' in %s", detail, source)
		suggestion = "the period column must use the YYYY-MM format"
	case CodeMissingSection:
		message = fmt.Sprintf("section marker '%s' not found in %s", detail, source)
		suggestion = "check that the single-agency file follows the expected layout"
	default:
		message = fmt.Sprintf("parse error in %s: %s", source, detail)
		suggestion = "check the file format and data integrity"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source).
		WithContext("detail", detail)
}

// ValidationError creates a data-integrity error.
func ValidationError(code ErrorCode, detail string, err error) *PipelineError {
	var message, suggestion string

	switch code {
	case CodeRowCountMismatch:
		message = fmt.Sprintf("row count changed after validating join: %s", detail)
		suggestion = "the country mapping must be unique per (agency, branch) pair"
	case CodeDuplicateMappingKey:
		message = fmt.Sprintf("duplicate (agency, branch) key in country mapping: %s", detail)
		suggestion = "remove the duplicated row from the mapping workbook"
	case CodeUnmatchedDepartment:
		message = fmt.Sprintf("department name could not be matched: %s", detail)
		suggestion = "add the department to the mapping or lower the match cutoff"
	default:
		message = fmt.Sprintf("validation error: %s", detail)
		suggestion = "check the input data and rerun"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.WithSuggestion(suggestion)
}

// ConfigurationError creates a configuration-related error.
func ConfigurationError(code ErrorCode, detail string, err error) *PipelineError {
	var message, suggestion string

	switch code {
	case CodeUnknownMappingKind:
		message = fmt.Sprintf("unsupported mapping kind: %s", detail)
		suggestion = "only the 'countries' and 'departments' mapping kinds are supported"
	case CodeAmbiguousFCCode:
		message = fmt.Sprintf("more than one FC code found: %s", detail)
		suggestion = "the mapping must resolve each agency to exactly one FC code"
	case CodeMissingFCCode:
		message = fmt.Sprintf("no FC code found for %s", detail)
		suggestion = "add the agency to the countries mapping"
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration: %s", detail)
		suggestion = "check the run parameters and try again"
	default:
		message = fmt.Sprintf("configuration error: %s", detail)
		suggestion = "check your configuration and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.WithSuggestion(suggestion)
}

// InternalError creates an internal error.
func InternalError(code ErrorCode, operation string, err error) *PipelineError {
	message := fmt.Sprintf("internal error during %s", operation)

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsPipelineError checks if an error is a PipelineError.
func IsPipelineError(err error) bool {
	_, ok := err.(*PipelineError)
	return ok
}

// AsPipelineError extracts a PipelineError from an error chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// ExitCode returns the exit code for an arbitrary error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if pipelineErr, ok := AsPipelineError(err); ok {
		return pipelineErr.GetExitCode()
	}
	return 1
}
