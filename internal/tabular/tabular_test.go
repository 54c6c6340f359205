package tabular

import (
	"reflect"
	"testing"
)

func createRawTable() *Table {
	return New(
		[]string{"  KPI Agency ", "Branch", "Agency   Code"},
		[][]string{
			{"Alpha*", "  Main   Office ", "101"},
			{"BETA", "aux", "102.0"},
		},
	)
}

func TestNew(t *testing.T) {
	table := New([]string{"a", "b", "c"}, [][]string{
		{"1"},
		{"1", "2", "3", "4"},
	})

	if table.RowCount() != 2 {
		t.Fatalf("Expected 2 rows, got %d", table.RowCount())
	}
	for i, row := range table.Rows {
		if len(row) != 3 {
			t.Errorf("Row %d: expected 3 cells, got %d", i, len(row))
		}
	}
	if table.Rows[1][2] != "3" {
		t.Errorf("Expected truncated row to keep '3', got '%s'", table.Rows[1][2])
	}
}

func TestClean(t *testing.T) {
	cleaned := Clean(createRawTable())

	expectedColumns := []string{"kpi agency", "branch", "agency code"}
	if !reflect.DeepEqual(cleaned.Columns, expectedColumns) {
		t.Errorf("Expected columns %v, got %v", expectedColumns, cleaned.Columns)
	}

	if cleaned.Rows[0][0] != "alpha" {
		t.Errorf("Expected asterisk stripped and lowercased, got '%s'", cleaned.Rows[0][0])
	}
	if cleaned.Rows[0][1] != "main office" {
		t.Errorf("Expected whitespace collapsed, got '%s'", cleaned.Rows[0][1])
	}
	if cleaned.Rows[1][0] != "beta" {
		t.Errorf("Expected lowercased cell, got '%s'", cleaned.Rows[1][0])
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	once := Clean(createRawTable())
	twice := Clean(once)

	if !reflect.DeepEqual(once, twice) {
		t.Error("Cleaning an already clean table changed it")
	}
}

func TestCleanPreservesShape(t *testing.T) {
	raw := createRawTable()
	cleaned := Clean(raw)

	if cleaned.RowCount() != raw.RowCount() {
		t.Errorf("Row count changed: %d -> %d", raw.RowCount(), cleaned.RowCount())
	}
	if cleaned.ColumnCount() != raw.ColumnCount() {
		t.Errorf("Column count changed: %d -> %d", raw.ColumnCount(), cleaned.ColumnCount())
	}

	// Pure: the input table is untouched.
	if raw.Rows[0][0] != "Alpha*" {
		t.Errorf("Clean modified its input: '%s'", raw.Rows[0][0])
	}
}

func TestApplyFixups(t *testing.T) {
	table := New(
		[]string{"branch", "agency code"},
		[][]string{
			{"import / export", "101.0"},
			{"transshipment hub", "102.5"},
			{"st. branch", "103"},
		},
	)

	fixed := ApplyFixups(table)

	tests := []struct {
		row      int
		col      int
		expected string
	}{
		{0, 0, "import/export"},
		{1, 0, "transhipment hub"},
		{2, 0, "st branch"},
		// Code columns are excluded so decimals survive.
		{0, 1, "101.0"},
		{1, 1, "102.5"},
	}
	for _, tt := range tests {
		if got := fixed.Rows[tt.row][tt.col]; got != tt.expected {
			t.Errorf("Cell (%d,%d): expected '%s', got '%s'", tt.row, tt.col, tt.expected, got)
		}
	}

	if table.Rows[0][0] != "import / export" {
		t.Error("ApplyFixups modified its input")
	}
}

func TestFixupValue(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"import / export", "import/export"},
		{"transshipment hub", "transhipment hub"},
		{"st. branch", "st branch"},
		{"main", "main"},
	}

	for _, tt := range tests {
		if got := FixupValue(tt.value); got != tt.expected {
			t.Errorf("FixupValue(%q): expected %q, got %q", tt.value, tt.expected, got)
		}
	}
}

func TestApplyFixupsExcludesDepartmentCode(t *testing.T) {
	table := New(
		[]string{"department code"},
		[][]string{{"1000.0"}},
	)

	if got := ApplyFixups(table).Rows[0][0]; got != "1000.0" {
		t.Errorf("Expected department code to survive untouched, got '%s'", got)
	}
}

func TestIsMissing(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"nan", true},
		{"NaN", true},
		{"none", true},
		{"null", true},
		{"", true},
		{"  ", true},
		{"n/a", true},
		{"na", true},
		{"0", false},
		{"alpha", false},
	}

	for _, tt := range tests {
		if got := IsMissing(tt.value); got != tt.expected {
			t.Errorf("IsMissing(%q): expected %v, got %v", tt.value, tt.expected, got)
		}
	}
}

func TestRequire(t *testing.T) {
	table := New([]string{"kpi agency", "branch"}, nil)

	if err := table.Require("test", "kpi agency", "branch"); err != nil {
		t.Errorf("Expected required columns to be present, got %v", err)
	}

	err := table.Require("test", "kpi agency", "currency")
	if err == nil {
		t.Fatal("Expected error for missing column")
	}
}

func TestTruncateColumns(t *testing.T) {
	table := New(
		[]string{"a", "b", "total", "after"},
		[][]string{{"1", "2", "3", "4"}},
	)

	table.TruncateColumns(table.ColumnIndex("total"))

	if table.ColumnCount() != 2 {
		t.Fatalf("Expected 2 columns after truncation, got %d", table.ColumnCount())
	}
	if len(table.Rows[0]) != 2 {
		t.Errorf("Expected row truncated to 2 cells, got %d", len(table.Rows[0]))
	}
}

func TestRenameAt(t *testing.T) {
	table := New([]string{"", "", "main"}, nil)
	table.RenameAt(0, "department")
	table.RenameAt(1, "fte type")
	table.RenameAt(9, "ignored")

	if table.Columns[0] != "department" || table.Columns[1] != "fte type" {
		t.Errorf("Positional rename failed: %v", table.Columns)
	}
}
