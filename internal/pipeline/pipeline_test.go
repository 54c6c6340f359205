package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fte-grid-service/internal/loader"
	"fte-grid-service/internal/mapping"
	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

func writeGridCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "grid.csv")
	table := tabular.New(
		[]string{"KPI Year Month", "KPI Agency", "Branch", "CEO Region",
			"Regional Director", "Department Code", "Description",
			"Current Total # Employees"},
		[][]string{
			{"2026-07", "Alpha", "Main", "EMEA", "Dupont", "1000", "Nb of FTEs", "12.5"},
			{"2026-07", "Beta", "Main", "AMER", "Smith", "1000", "Nb of FTEs", "3"},
		},
	)
	if err := loader.WriteTable(path, table); err != nil {
		t.Fatalf("Failed to write grid fixture: %v", err)
	}
	return path
}

func writeMappingWorkbook(t *testing.T, dir string, extraCountries ...[]interface{}) string {
	t.Helper()
	path := filepath.Join(dir, "mapping.xlsx")

	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), mapping.CountriesSheet)
	if _, err := f.NewSheet(mapping.DepartmentsSheet); err != nil {
		t.Fatalf("Failed to create department sheet: %v", err)
	}

	countries := [][]interface{}{
		{"KPI Agency", "Branch", "Agency Code", "FC Code", "CEO Region",
			"Continent Split", "Regional Director", "Currency"},
		{"Alpha", "Main", "101", "fc_alpha", "EMEA", "Europe", "Dupont", "EUR"},
		{"Beta", "Main", "102", "fc_beta", "AMER", "America", "Smith", "USD"},
		{"Gamma", "Main", "103", "fc_gamma", "APAC", "Asia", "Tanaka", "JPY"},
	}
	countries = append(countries, extraCountries...)
	departments := [][]interface{}{
		{"KPI Department", "Department FC Code"},
		{"Operations", "x1000"},
		{"Overtime hours", "x9400"},
		{"Nb of trainees", "x9100"},
		{"Nb of temporary contracts", "x9200"},
		{"Nb of long-term leaves", "x9300"},
	}
	writeSheet(t, f, mapping.CountriesSheet, countries)
	writeSheet(t, f, mapping.DepartmentsSheet, departments)

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save mapping fixture: %v", err)
	}
	f.Close()
	return path
}

func writeAgencyWorkbook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "gamma.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Gamma"},
		{"", "", "Main", "Total for all branches"},
		{"Operations", "Nb of FTEs", "2", "2"},
		{"Service/Documentation Center", "", "", ""},
		{"Grand Total", "", "2", "2"},
	}
	writeSheet(t, f, f.GetSheetName(0), rows)

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save agency fixture: %v", err)
	}
	f.Close()
	return path
}

func writeSheet(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("Failed to compute cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("Failed to write fixture row: %v", err)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outputDir, 0o755); err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}

	var report bytes.Buffer
	runner := NewRunner()
	result, err := runner.Run(&Request{
		GridFile:     writeGridCSV(t, dir),
		MappingFile:  writeMappingWorkbook(t, dir),
		AgencyFiles:  []string{writeAgencyWorkbook(t, dir)},
		Year:         2026,
		Month:        7,
		OutputDir:    outputDir,
		ReportWriter: &report,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.GridRows != 2 {
		t.Errorf("Expected 2 grid rows, got %d", result.GridRows)
	}
	// Gamma contributes one detail and one grand-total row over one branch.
	if result.MergedRows != 4 {
		t.Errorf("Expected 4 merged rows, got %d", result.MergedRows)
	}

	if len(result.BeforeMerge.Missing) != 1 || result.BeforeMerge.Missing[0] != "gamma" {
		t.Errorf("Expected gamma missing before merge, got %v", result.BeforeMerge.Missing)
	}
	if len(result.AfterMerge.Missing) != 0 {
		t.Errorf("Expected no missing agencies after merge, got %v", result.AfterMerge.Missing)
	}

	if !strings.Contains(report.String(), "Missing agencies in current month (July 2026):") {
		t.Errorf("Expected reconciliation report, got:\n%s", report.String())
	}
	if !strings.Contains(report.String(), "Single files matched the missing agencies") {
		t.Errorf("Expected clean file cross-check, got:\n%s", report.String())
	}

	if len(result.OutputFiles) != 4 {
		t.Fatalf("Expected 4 output files, got %d", len(result.OutputFiles))
	}
	expected := []string{
		"agency_grid_2026-07.xlsx",
		"avoided_rows_2026-07.xlsx",
		"filtered_rows_2026-07.xlsx",
		"fc_upload_2026-07.xlsx",
	}
	for i, name := range expected {
		if filepath.Base(result.OutputFiles[i]) != name {
			t.Errorf("Expected output %s, got %s", name, filepath.Base(result.OutputFiles[i]))
		}
		if _, err := os.Stat(result.OutputFiles[i]); err != nil {
			t.Errorf("Output file not written: %v", err)
		}
	}

	// All merged rows carry complete mapping attributes.
	if result.AvoidedRows != 0 {
		t.Errorf("Expected no avoided rows, got %d", result.AvoidedRows)
	}
	if result.KeptRows != 4 {
		t.Errorf("Expected 4 kept rows, got %d", result.KeptRows)
	}

	upload, err := loader.LoadTable(result.OutputFiles[3], "")
	if err != nil {
		t.Fatalf("Failed to read upload extract: %v", err)
	}
	// Three FC codes, alpha and beta with one department code each plus
	// gamma with x1000 and x9000: cross-product per period over all codes.
	if upload.RowCount() != 6 {
		t.Errorf("Expected 6 upload rows, got %d", upload.RowCount())
	}
	if upload.Cell(0, "D_CA") != "ACTS" {
		t.Errorf("Expected ACTS category, got '%s'", upload.Cell(0, "D_CA"))
	}
}

func TestRunAmbiguousAgencyFCCode(t *testing.T) {
	dir := t.TempDir()

	// A second gamma branch with a different FC code makes the supplied
	// single-agency file unresolvable.
	mappingFile := writeMappingWorkbook(t, dir,
		[]interface{}{"Gamma", "Aux", "103", "fc_gamma2", "APAC", "Asia", "Tanaka", "JPY"})

	var report bytes.Buffer
	runner := NewRunner()
	_, err := runner.Run(&Request{
		GridFile:     writeGridCSV(t, dir),
		MappingFile:  mappingFile,
		AgencyFiles:  []string{writeAgencyWorkbook(t, dir)},
		Year:         2026,
		Month:        7,
		OutputDir:    dir,
		ReportWriter: &report,
	})
	pipelineErr, ok := pkgerrors.AsPipelineError(err)
	if !ok || pipelineErr.Code != pkgerrors.CodeAmbiguousFCCode {
		t.Errorf("Expected ambiguous_fc_code error, got %v", err)
	}
}

func TestRunInvalidMonth(t *testing.T) {
	runner := NewRunner()
	_, err := runner.Run(&Request{Year: 2026, Month: 0})
	if err == nil {
		t.Fatal("Expected error for invalid month")
	}
}
