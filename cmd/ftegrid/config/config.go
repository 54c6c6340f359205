// Package config translates CLI parameters into the validated, immutable
// run configuration handed to the pipeline. All run state lives here;
// nothing in the pipeline reads globals.
package config

import (
	"io"

	"fte-grid-service/internal/agencyfile"
	"fte-grid-service/internal/pipeline"
	pkgerrors "fte-grid-service/pkg/errors"
)

// RunParameters are the raw CLI inputs of one monthly run.
type RunParameters struct {
	GridFile    string
	MappingFile string
	AgencyFiles []string
	Year        int
	Month       int
	OutputDir   string
	MatchCutoff float64
	MatchPolicy string
}

// RunConfig is the validated run configuration. It is constructed once
// and never mutated afterwards.
type RunConfig struct {
	gridFile    string
	mappingFile string
	agencyFiles []string
	year        int
	month       int
	outputDir   string
	matcher     *agencyfile.MatcherConfig
}

// NewRunConfig validates the raw parameters and builds the run
// configuration. Validation failures are configuration errors carrying
// the offending parameter.
func NewRunConfig(params RunParameters) (*RunConfig, error) {
	matcher := &agencyfile.MatcherConfig{
		Cutoff: params.MatchCutoff,
		Policy: agencyfile.MatchPolicy(params.MatchPolicy),
	}
	if err := matcher.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(
			pkgerrors.CodeInvalidConfig, err.Error(), err)
	}

	if params.GridFile == "" {
		return nil, pkgerrors.ConfigurationError(
			pkgerrors.CodeInvalidConfig, "grid file is required", nil)
	}
	if params.MappingFile == "" {
		return nil, pkgerrors.ConfigurationError(
			pkgerrors.CodeInvalidConfig, "mapping workbook is required", nil)
	}

	outputDir := params.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	agencyFiles := make([]string, len(params.AgencyFiles))
	copy(agencyFiles, params.AgencyFiles)

	return &RunConfig{
		gridFile:    params.GridFile,
		mappingFile: params.MappingFile,
		agencyFiles: agencyFiles,
		year:        params.Year,
		month:       params.Month,
		outputDir:   outputDir,
		matcher:     matcher,
	}, nil
}

// PipelineRequest builds the pipeline request for this run, with the
// reconciliation report going to w.
func (c *RunConfig) PipelineRequest(w io.Writer) *pipeline.Request {
	return &pipeline.Request{
		GridFile:     c.gridFile,
		MappingFile:  c.mappingFile,
		AgencyFiles:  c.agencyFiles,
		Year:         c.year,
		Month:        c.month,
		OutputDir:    c.outputDir,
		Matcher:      c.matcher,
		ReportWriter: w,
	}
}
