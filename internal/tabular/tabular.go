// Package tabular provides the raw tabular dataset type and the
// canonicalization layer of the FTE grid pipeline.
//
// A Table is an ordered collection of named string columns. Heterogeneous
// input (the monthly grid, mapping sheets, single-agency files) is loaded
// into Tables and canonicalized here before any typed transformation
// happens. Canonicalization is a pure function: it never adds or removes
// rows or columns.
package tabular

import (
	"fmt"
	"strings"

	pkgerrors "fte-grid-service/pkg/errors"
)

// Table is an ordered collection of named columns holding string cells.
// Every row has exactly one cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates a Table, padding or truncating rows to the column count so
// that the row shape invariant holds.
func New(columns []string, rows [][]string) *Table {
	normalized := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		copy(cells, row)
		normalized[i] = cells
	}
	return &Table{Columns: columns, Rows: normalized}
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// ColumnIndex returns the index of a column by name, or -1 if not found.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, column name). Missing columns yield the
// empty string; bounds are the caller's responsibility for rows.
func (t *Table) Cell(row int, column string) string {
	idx := t.ColumnIndex(column)
	if idx == -1 {
		return ""
	}
	return t.Rows[row][idx]
}

// Require validates that all named columns are present, failing fast with
// a named-field diagnostic when one is absent.
func (t *Table) Require(source string, columns ...string) error {
	var missing []string
	for _, col := range columns {
		if t.ColumnIndex(col) == -1 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.ParseError(
			pkgerrors.CodeMissingColumn,
			source,
			strings.Join(missing, ", "),
			nil,
		).WithContext("available_columns", fmt.Sprintf("%v", t.Columns))
	}
	return nil
}

// Rename renames a column in place. Unknown source names are ignored so
// that renames stay idempotent across pipeline versions.
func (t *Table) Rename(from, to string) {
	if idx := t.ColumnIndex(from); idx != -1 {
		t.Columns[idx] = to
	}
}

// RenameAt renames a column by position, used for anonymous positional
// headers in single-agency files.
func (t *Table) RenameAt(index int, to string) {
	if index >= 0 && index < len(t.Columns) {
		t.Columns[index] = to
	}
}

// TruncateColumns drops all columns at and after the given index.
func (t *Table) TruncateColumns(index int) {
	if index < 0 || index >= len(t.Columns) {
		return
	}
	t.Columns = t.Columns[:index]
	for i, row := range t.Rows {
		t.Rows[i] = row[:index]
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		copy(cells, row)
		rows[i] = cells
	}
	return &Table{Columns: columns, Rows: rows}
}

// nullEquivalents is the configurable set of string forms recognized as
// true-missing where the single-agency parser reads values. The
// canonicalizer itself does not apply it globally.
var nullEquivalents = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"":     true,
	"n/a":  true,
	"na":   true,
}

// IsMissing reports whether a cell value is one of the recognized
// missing-value string forms (case-insensitive, trimmed).
func IsMissing(value string) bool {
	return nullEquivalents[strings.ToLower(strings.TrimSpace(value))]
}

// Clean canonicalizes a table: column names are trimmed, lowercased and
// internal whitespace runs collapsed; every cell has asterisks stripped,
// whitespace runs collapsed, leading/trailing space trimmed, and is
// lowercased. Pure: the input table is not modified and no rows are added
// or removed.
func Clean(t *Table) *Table {
	out := t.Clone()
	for i, col := range out.Columns {
		out.Columns[i] = collapseWhitespace(strings.ToLower(strings.TrimSpace(col)))
	}
	for _, row := range out.Rows {
		for j, cell := range row {
			row[j] = cleanCell(cell)
		}
	}
	return out
}

func cleanCell(value string) string {
	value = strings.ReplaceAll(value, "*", "")
	value = collapseWhitespace(strings.TrimSpace(value))
	return strings.ToLower(value)
}

// collapseWhitespace reduces internal whitespace runs to a single space.
func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// fixup is one known spelling defect in reference data and its correction.
type fixup struct {
	old string
	new string
}

// fixups are applied to every text column except the excluded code/count
// columns. The list covers defects observed in historical mapping files.
var fixups = []fixup{
	{" / ", "/"},
	{".", ""},
	{"transshipment", "transhipment"},
}

// fixupExcludedColumns are columns whose values are codes or counts; the
// dot-stripping fixup would corrupt them.
var fixupExcludedColumns = map[string]bool{
	"agency code":               true,
	"fc code":                   true,
	"department code":           true,
	"department fc code":        true,
	"current total # employees": true,
	"n fte":                     true,
}

// FixupValue applies the known text-substitution corrections to one cell
// value. Callers working on code or count cells must not use it.
func FixupValue(value string) string {
	for _, f := range fixups {
		value = strings.ReplaceAll(value, f.old, f.new)
	}
	return value
}

// ApplyFixups applies the known text-substitution corrections to a
// canonicalized table, skipping code and count columns. Pure.
func ApplyFixups(t *Table) *Table {
	out := t.Clone()
	for colIdx, col := range out.Columns {
		if fixupExcludedColumns[col] {
			continue
		}
		for _, row := range out.Rows {
			row[colIdx] = FixupValue(row[colIdx])
		}
	}
	return out
}
