package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CategoryParse, CodeMissingColumn, "missing column 'branch'")

	if err.Category != CategoryParse {
		t.Errorf("Expected parse category, got %s", err.Category)
	}
	if err.Code != CodeMissingColumn {
		t.Errorf("Expected missing_column code, got %s", err.Code)
	}
	if err.Error() != "missing column 'branch'" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestErrorWithSuggestion(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "file not found").
		WithSuggestion("check the path")

	if !strings.Contains(err.Error(), "suggestion: check the path") {
		t.Errorf("Expected suggestion in message, got: %s", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryInternal, CodeUnexpectedError, "operation failed")

	if err.Unwrap() != cause {
		t.Error("Expected cause to be preserved")
	}
	if Wrap(nil, CategoryInternal, CodeUnexpectedError, "x") != nil {
		t.Error("Wrapping nil must return nil")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "test")
		if got := err.GetExitCode(); got != tt.expected {
			t.Errorf("Category %s: expected exit code %d, got %d", tt.category, tt.expected, got)
		}
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryValidation, CodeRowCountMismatch, "mismatch").
		WithContext("raw_rows", 10).
		WithContext("joined_rows", 12)

	if err.Context["raw_rows"] != 10 {
		t.Errorf("Expected context value 10, got %v", err.Context["raw_rows"])
	}
	formatted := err.FormatContext()
	if !strings.Contains(formatted, "joined_rows=12") {
		t.Errorf("Expected formatted context, got: %s", formatted)
	}
}

func TestFileError(t *testing.T) {
	err := FileError(CodeUnknownExtension, "grid.parquet", nil)

	if err.Category != CategoryFile {
		t.Errorf("Expected file category, got %s", err.Category)
	}
	if !strings.Contains(err.Message, "grid.parquet") {
		t.Errorf("Expected path in message, got: %s", err.Message)
	}
	if err.Context["file_path"] != "grid.parquet" {
		t.Errorf("Expected file_path context, got %v", err.Context)
	}
}

func TestParseError(t *testing.T) {
	err := ParseError(CodeMissingColumn, "monthly grid", "branch", nil)

	if !strings.Contains(err.Message, "branch") || !strings.Contains(err.Message, "monthly grid") {
		t.Errorf("Expected column and source in message, got: %s", err.Message)
	}
}

func TestAsPipelineError(t *testing.T) {
	inner := ValidationError(CodeDuplicateMappingKey, "alpha|main", nil)
	wrapped := fmt.Errorf("while loading mapping: %w", inner)

	extracted, ok := AsPipelineError(wrapped)
	if !ok {
		t.Fatal("Expected PipelineError to be extracted from chain")
	}
	if extracted.Code != CodeDuplicateMappingKey {
		t.Errorf("Expected duplicate_mapping_key, got %s", extracted.Code)
	}

	if _, ok := AsPipelineError(fmt.Errorf("plain")); ok {
		t.Error("Expected no extraction from plain error")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("Expected 0 for nil error")
	}
	if ExitCode(fmt.Errorf("plain")) != 1 {
		t.Error("Expected 1 for a plain error")
	}
	if ExitCode(ConfigurationError(CodeInvalidConfig, "bad cutoff", nil)) != 4 {
		t.Error("Expected 4 for a configuration error")
	}
}
