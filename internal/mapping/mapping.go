// Package mapping implements the mapping transformer of the FTE grid
// pipeline.
//
// The reference workbook carries two known mapping kinds: the countries
// mapping (agency/branch reference attributes) and the department mapping
// (department name to FC code). Each kind gets its own column renames and
// type coercions; an unrecognized kind is a fatal configuration error.
package mapping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fte-grid-service/internal/models"
	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"
	"fte-grid-service/pkg/logger"
)

// Kind selects which of the two known mapping kinds a sheet holds.
type Kind string

const (
	KindCountries   Kind = "countries"
	KindDepartments Kind = "departments"
)

// Sheet names of the reference mapping workbook.
const (
	CountriesSheet   = "Countries mapping"
	DepartmentsSheet = "Department mapping"
)

// NonStandardTailRows is the number of trailing department-mapping rows
// reserved for non-standard labels that match the grid's fte type field.
const NonStandardTailRows = 4

// Maps holds both transformed reference mappings.
type Maps struct {
	Countries   *CountryMap
	Departments *DepartmentMap
}

// TransformSheet applies the kind-specific transformation of a
// canonicalized mapping sheet and stores the result. The unsupported-kind
// condition is a fatal configuration error, not a recoverable one.
func TransformSheet(m *Maps, t *tabular.Table, kind Kind) error {
	switch kind {
	case KindCountries:
		countries, err := TransformCountries(t)
		if err != nil {
			return err
		}
		m.Countries = countries
		return nil
	case KindDepartments:
		departments, err := TransformDepartments(t)
		if err != nil {
			return err
		}
		m.Departments = departments
		return nil
	default:
		return pkgerrors.ConfigurationError(
			pkgerrors.CodeUnknownMappingKind, string(kind), nil)
	}
}

// CountryMap is the transformed countries mapping. Rows are kept in sheet
// order; the key index is built on construction and used for lookups and
// uniqueness validation.
type CountryMap struct {
	Rows []models.CountryRow

	index map[string][]int
}

// NewCountryMap builds a CountryMap from typed rows and indexes them by
// (agency, branch) key. Uniqueness is checked separately via Validate so
// the fan-out detection of the validating join stays exercisable.
func NewCountryMap(rows []models.CountryRow) *CountryMap {
	m := &CountryMap{
		Rows:  rows,
		index: make(map[string][]int),
	}
	for i, row := range rows {
		m.index[row.Key()] = append(m.index[row.Key()], i)
	}
	return m
}

// Validate checks that every (agency, branch) pair is unique. A duplicate
// key is a fatal data-integrity condition.
func (m *CountryMap) Validate() error {
	for key, indices := range m.index {
		if len(indices) > 1 {
			return pkgerrors.ValidationError(
				pkgerrors.CodeDuplicateMappingKey, key, nil)
		}
	}
	return nil
}

// Lookup returns the mapping rows for an (agency, branch) pair. With a
// validated map the result has at most one element.
func (m *CountryMap) Lookup(agency, branch string) []models.CountryRow {
	indices := m.index[agency+"|"+branch]
	rows := make([]models.CountryRow, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, m.Rows[i])
	}
	return rows
}

// Agencies returns the set of agency names present in the mapping.
func (m *CountryMap) Agencies() map[string]bool {
	set := make(map[string]bool)
	for _, row := range m.Rows {
		set[row.Agency] = true
	}
	return set
}

// ResolveFCCode resolves the single FC code for an agency. Zero or
// multiple distinct codes is a fatal configuration error.
func (m *CountryMap) ResolveFCCode(agency string) (string, error) {
	codes := make(map[string]bool)
	for _, row := range m.Rows {
		if row.Agency == agency {
			codes[row.FCCode] = true
		}
	}

	switch len(codes) {
	case 0:
		return "", pkgerrors.ConfigurationError(
			pkgerrors.CodeMissingFCCode, agency, nil)
	case 1:
		for code := range codes {
			return code, nil
		}
		return "", nil
	default:
		found := make([]string, 0, len(codes))
		for code := range codes {
			found = append(found, code)
		}
		sort.Strings(found)
		return "", pkgerrors.ConfigurationError(
			pkgerrors.CodeAmbiguousFCCode,
			fmt.Sprintf("%s: %s", agency, strings.Join(found, ", ")), nil)
	}
}

// TransformCountries transforms the canonicalized countries mapping sheet:
// applies fix-ups, coerces the agency code to its canonical string form,
// and validates (agency, branch) uniqueness.
func TransformCountries(t *tabular.Table) (*CountryMap, error) {
	log := logger.WithComponent("mapping")

	t = tabular.ApplyFixups(t)
	if err := t.Require("countries mapping",
		"kpi agency", "branch", "agency code", "fc code",
		"ceo region", "continent split", "regional director", "currency"); err != nil {
		return nil, err
	}

	rows := make([]models.CountryRow, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		rows = append(rows, models.CountryRow{
			Agency:           t.Cell(i, "kpi agency"),
			Branch:           t.Cell(i, "branch"),
			AgencyCode:       canonicalAgencyCode(t.Cell(i, "agency code")),
			FCCode:           t.Cell(i, "fc code"),
			CEORegion:        t.Cell(i, "ceo region"),
			ContinentSplit:   t.Cell(i, "continent split"),
			RegionalDirector: t.Cell(i, "regional director"),
			Currency:         t.Cell(i, "currency"),
		})
	}

	m := NewCountryMap(rows)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"rows":     len(m.Rows),
		"agencies": len(m.Agencies()),
	}).Info("Countries mapping transformed")
	return m, nil
}

// canonicalAgencyCode coerces an agency code to its canonical string
// representation. Historical files carry the code as an integer, which
// spreadsheet round-trips render as "123.0"; the fractional suffix is
// stripped so joins do not diverge on type.
func canonicalAgencyCode(value string) string {
	value = strings.TrimSpace(value)
	if f, err := strconv.ParseFloat(value, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return value
}

// DepartmentMap is the transformed department mapping. Row order is
// preserved: the trailing rows are the reserved non-standard labels.
type DepartmentMap struct {
	Rows []models.DepartmentRow

	byName map[string]string
}

// Names returns all department names in sheet order, the candidate list
// for fuzzy matching.
func (m *DepartmentMap) Names() []string {
	names := make([]string, len(m.Rows))
	for i, row := range m.Rows {
		names[i] = row.Department
	}
	return names
}

// CodeFor returns the department FC code for an exact department name.
func (m *DepartmentMap) CodeFor(department string) (string, bool) {
	code, ok := m.byName[department]
	return code, ok
}

// NonStandardLabels returns the reserved trailing labels that map the
// grid's fte type field directly into the department field.
func (m *DepartmentMap) NonStandardLabels() []models.DepartmentRow {
	var labels []models.DepartmentRow
	for _, row := range m.Rows {
		if row.NonStandard {
			labels = append(labels, row)
		}
	}
	return labels
}

// TransformDepartments transforms the canonicalized department mapping
// sheet: renames the department-name column to its canonical field,
// coerces codes to strings, and marks the trailing non-standard rows.
func TransformDepartments(t *tabular.Table) (*DepartmentMap, error) {
	log := logger.WithComponent("mapping")

	t = tabular.ApplyFixups(t)
	t.Rename("kpi department", "department")
	if err := t.Require("department mapping", "department", "department fc code"); err != nil {
		return nil, err
	}

	total := t.RowCount()
	rows := make([]models.DepartmentRow, 0, total)
	byName := make(map[string]string, total)
	for i := 0; i < total; i++ {
		row := models.DepartmentRow{
			Department:       t.Cell(i, "department"),
			DepartmentFCCode: t.Cell(i, "department fc code"),
			NonStandard:      i >= total-NonStandardTailRows,
		}
		rows = append(rows, row)
		byName[row.Department] = row.DepartmentFCCode
	}

	log.WithFields(logger.Fields{
		"rows":         len(rows),
		"non_standard": NonStandardTailRows,
	}).Info("Department mapping transformed")
	return &DepartmentMap{Rows: rows, byName: byName}, nil
}
