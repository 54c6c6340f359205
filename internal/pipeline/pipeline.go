// Package pipeline orchestrates one monthly FTE reconciliation run: load
// and canonicalize the inputs, transform the mappings and the grid, parse
// the single-agency files, reconcile agency coverage before and after the
// merge, consolidate and filter, and write the four stamped output files.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fte-grid-service/internal/agencyfile"
	"fte-grid-service/internal/consolidate"
	"fte-grid-service/internal/fcexport"
	"fte-grid-service/internal/loader"
	"fte-grid-service/internal/mapping"
	"fte-grid-service/internal/models"
	"fte-grid-service/internal/reconcile"
	"fte-grid-service/internal/tabular"
	"fte-grid-service/internal/transform"
	"fte-grid-service/pkg/logger"
)

// Request carries the inputs of one run.
type Request struct {
	// GridFile is the primary multi-agency monthly dataset (.csv or
	// workbook).
	GridFile string
	// MappingFile is the reference workbook with the countries and
	// department mapping sheets.
	MappingFile string
	// AgencyFiles are optional single-agency workbooks for agencies
	// missing from the grid.
	AgencyFiles []string
	// Year and Month identify the reporting period.
	Year  int
	Month int
	// OutputDir receives the four stamped output files.
	OutputDir string
	// Matcher configures fuzzy department matching; nil selects the
	// default.
	Matcher *agencyfile.MatcherConfig
	// ReportWriter receives the reconciliation console report; nil
	// selects stdout.
	ReportWriter io.Writer
}

// Result summarizes one completed run.
type Result struct {
	GridRows    int
	MergedRows  int
	AvoidedRows int
	KeptRows    int
	UploadRows  int
	// BeforeMerge and AfterMerge are the agency reconciliation passes
	// around the single-agency merge.
	BeforeMerge *reconcile.Result
	AfterMerge  *reconcile.Result
	OutputFiles []string
}

// Runner executes monthly runs.
type Runner struct {
	logger logger.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner() *Runner {
	return &Runner{logger: logger.WithComponent("pipeline")}
}

// Run executes one full monthly reconciliation run.
func (r *Runner) Run(req *Request) (*Result, error) {
	dates, err := models.NewDateContext(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	reportWriter := req.ReportWriter
	if reportWriter == nil {
		reportWriter = os.Stdout
	}

	r.logger.WithFields(logger.Fields{
		"period":       dates.Current.Number,
		"grid_file":    req.GridFile,
		"agency_files": len(req.AgencyFiles),
	}).Infof("Monthly run for %s started", dates.Current.Long)

	maps, err := r.loadMappings(req.MappingFile)
	if err != nil {
		return nil, err
	}

	grid, err := r.loadGrid(req.GridFile, maps.Countries)
	if err != nil {
		return nil, err
	}

	reporter := reconcile.NewReporter(reportWriter, dates)
	before := reconcile.Reconcile(maps.Countries.Agencies(), reconcile.AgencySet(grid))
	reporter.ReportAgencies(before)

	agencies, supplied, err := r.parseAgencyFiles(req, maps, dates)
	if err != nil {
		return nil, err
	}
	reporter.ReportFileCheck(reconcile.CrossCheck(supplied, before.Missing))

	merged := consolidate.Merge(grid, agencies)

	after := reconcile.Reconcile(maps.Countries.Agencies(), reconcile.AgencySet(merged))
	reporter.ReportAgencies(after)

	enriched := consolidate.Enrich(merged, maps.Countries, maps.Departments)
	avoided, kept := consolidate.Filter(enriched)

	upload, err := fcexport.BuildUpload(kept)
	if err != nil {
		return nil, err
	}

	outputs, err := r.writeOutputs(req.OutputDir, dates, enriched, avoided, kept, upload)
	if err != nil {
		return nil, err
	}

	result := &Result{
		GridRows:    len(grid),
		MergedRows:  len(merged),
		AvoidedRows: len(avoided),
		KeptRows:    len(kept),
		UploadRows:  len(upload),
		BeforeMerge: before,
		AfterMerge:  after,
		OutputFiles: outputs,
	}

	r.logger.WithFields(logger.Fields{
		"merged_rows": result.MergedRows,
		"kept_rows":   result.KeptRows,
		"upload_rows": result.UploadRows,
	}).Infof("Monthly run for %s completed", dates.Current.Long)
	return result, nil
}

// loadMappings loads and transforms both reference mapping sheets from the
// mapping workbook.
func (r *Runner) loadMappings(path string) (*mapping.Maps, error) {
	maps := &mapping.Maps{}

	sheets := []struct {
		sheet string
		kind  mapping.Kind
	}{
		{mapping.CountriesSheet, mapping.KindCountries},
		{mapping.DepartmentsSheet, mapping.KindDepartments},
	}
	for _, s := range sheets {
		t, err := loader.LoadTable(path, s.sheet)
		if err != nil {
			return nil, err
		}
		if err := mapping.TransformSheet(maps, tabular.Clean(t), s.kind); err != nil {
			return nil, err
		}
	}
	return maps, nil
}

// loadGrid loads, canonicalizes and transforms the primary monthly grid.
func (r *Runner) loadGrid(path string, countries *mapping.CountryMap) ([]models.GridRecord, error) {
	t, err := loader.LoadTable(path, "")
	if err != nil {
		return nil, err
	}
	return transform.TransformGrid(tabular.Clean(t), countries)
}

// parseAgencyFiles loads and parses every supplied single-agency file. It
// returns the parsed datasets keyed by agency plus the list of supplied
// agency names for the cross-check. Each supplied agency must resolve to
// exactly one FC code in the countries mapping; zero or multiple codes is
// a fatal configuration error.
func (r *Runner) parseAgencyFiles(req *Request, maps *mapping.Maps, dates *models.DateContext) (map[string]*consolidate.AgencyData, []string, error) {
	agencies := make(map[string]*consolidate.AgencyData)
	var supplied []string
	if len(req.AgencyFiles) == 0 {
		return agencies, supplied, nil
	}

	parser, err := agencyfile.NewParser(req.Matcher, maps.Departments)
	if err != nil {
		return nil, nil, err
	}

	for _, path := range req.AgencyFiles {
		agency, t, err := loader.LoadSingleAgency(path)
		if err != nil {
			return nil, nil, err
		}

		fcCode, err := maps.Countries.ResolveFCCode(agency)
		if err != nil {
			return nil, nil, err
		}

		records, _, err := parser.Parse(agency, tabular.Clean(t), dates)
		if err != nil {
			return nil, nil, err
		}

		agencies[agency] = &consolidate.AgencyData{FTE: records}
		supplied = append(supplied, agency)
		r.logger.WithFields(logger.Fields{
			"agency":  agency,
			"fc_code": fcCode,
			"records": len(records),
		}).Info("Single-agency file accepted")
	}
	return agencies, supplied, nil
}

// writeOutputs writes the four stamped output files into the output
// directory and returns their paths.
func (r *Runner) writeOutputs(dir string, dates *models.DateContext, enriched []models.EnrichedRecord, avoided, kept []models.FilteredRecord, upload []models.FCUploadRecord) ([]string, error) {
	suffix := dates.Current.FileSuffix()

	outputs := []struct {
		name  string
		table *tabular.Table
	}{
		{fmt.Sprintf("agency_grid_%s.xlsx", suffix), consolidate.EnrichedTable(enriched)},
		{fmt.Sprintf("avoided_rows_%s.xlsx", suffix), consolidate.FilteredTable(avoided)},
		{fmt.Sprintf("filtered_rows_%s.xlsx", suffix), consolidate.FilteredTable(kept)},
		{fmt.Sprintf("fc_upload_%s.xlsx", suffix), fcexport.UploadTable(upload)},
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := loader.WriteTable(path, out.table); err != nil {
			return nil, err
		}
		r.logger.WithFields(logger.Fields{
			"file_path": path,
			"rows":      out.table.RowCount(),
		}).Info("Output file written")
		paths = append(paths, path)
	}
	return paths, nil
}
