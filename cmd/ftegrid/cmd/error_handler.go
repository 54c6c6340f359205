package cmd

import (
	"fmt"
	"os"

	"fte-grid-service/pkg/errors"
	"fte-grid-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError renders an error to stderr and returns the process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if pipelineErr, ok := errors.AsPipelineError(err); ok {
		return h.handlePipelineError(pipelineErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// handlePipelineError renders a PipelineError with its context and
// suggestion.
func (h *CLIErrorHandler) handlePipelineError(err *errors.PipelineError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if ctx := err.FormatContext(); ctx != "" {
		fmt.Fprintf(os.Stderr, "Context: %s\n", ctx)
	}
	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", err.Suggestion)
	}
	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "Underlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}
