// Package models defines the typed records flowing through the FTE grid
// pipeline, the run date context, and the central business-constant tables.
//
// The pipeline is strictly forward: raw tabular input is canonicalized,
// coerced into these record types at a stage boundary, and never addressed
// by column name again. Each stage owns the records it holds; the canonical
// column orders defined here are only used when records are rendered back
// into tabular form for output files.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GridRecord is one canonical monthly FTE record: a single
// (agency, branch, department) measurement stamped with the run period.
type GridRecord struct {
	Agency           string
	Branch           string
	CEORegion        string
	RegionalDirector string
	DepartmentFCCode string
	FTEType          string
	NFTE             decimal.Decimal
	Month            int
	Year             int
	Date             time.Time
}

// CountryRow is one row of the countries mapping: a (agency, branch) pair
// with its reference attributes. Agency codes are canonically strings; the
// historical integer form is coerced on load.
type CountryRow struct {
	Agency           string
	Branch           string
	AgencyCode       string
	FCCode           string
	CEORegion        string
	ContinentSplit   string
	RegionalDirector string
	Currency         string
}

// Key returns the unique mapping key for the row.
func (r CountryRow) Key() string {
	return r.Agency + "|" + r.Branch
}

// DepartmentRow is one row of the department mapping. The trailing rows of
// the mapping sheet are reserved non-standard labels that are matched
// against the grid's fte type field instead of the department name.
type DepartmentRow struct {
	Department       string
	DepartmentFCCode string
	NonStandard      bool
}

// EnrichedRecord is a grid record joined with its country-mapping
// attributes, in the fixed canonical column order used for the full
// consolidated output file.
type EnrichedRecord struct {
	AgencyCode       string
	Agency           string
	FCCode           string
	Branch           string
	CEORegion        string
	ContinentSplit   string
	RegionalDirector string
	DepartmentFCCode string
	NFTE             decimal.Decimal
	Currency         string
	Month            int
	Year             int
	Date             time.Time
}

// FilteredRecord is the seven-column projection used for the avoided and
// kept partitions after completeness filtering.
type FilteredRecord struct {
	Date             time.Time
	Agency           string
	Branch           string
	FCCode           string
	DepartmentFCCode string
	Currency         string
	NFTE             decimal.Decimal
}

// FCUploadRecord is one row of the fixed eight-column upload extract for
// the financial-consolidation system.
type FCUploadRecord struct {
	Category       string // D_CA
	Audit          string // D_AU
	Flag           string // D_FL
	Period         string // D_DP, YYYY.MM
	EntityCode     string // D_RU
	Currency       string // D_CU
	DepartmentCode string // D_AC
	Amount         decimal.Decimal
}

// DataColumns returns the canonical grid column order. Field order matters
// for downstream positional operations and output rendering.
func DataColumns() []string {
	return []string{
		"kpi agency",
		"branch",
		"ceo region",
		"regional director",
		"department fc code",
		"fte type",
		"n fte",
		"month",
		"year",
		"date",
	}
}

// EnrichedColumns returns the canonical column order of the consolidated
// grid after country-mapping enrichment.
func EnrichedColumns() []string {
	return []string{
		"agency code",
		"kpi agency",
		"fc code",
		"branch",
		"ceo region",
		"continent split",
		"regional director",
		"department fc code",
		"n fte",
		"currency",
		"month",
		"year",
		"date",
	}
}

// FilteredColumns returns the column order of the avoided/kept partitions.
func FilteredColumns() []string {
	return []string{
		"date",
		"kpi agency",
		"branch",
		"fc code",
		"department fc code",
		"currency",
		"n fte",
	}
}

// UploadColumns returns the fixed column order of the FC upload extract.
func UploadColumns() []string {
	return []string{"D_CA", "D_AU", "D_FL", "D_DP", "D_RU", "D_CU", "D_AC", "P_AMOUNT"}
}

// Fixed upload constants for the financial-consolidation extract.
const (
	UploadCategory = "ACTS"   // D_CA
	UploadAudit    = "PACK01" // D_AU
	UploadFlag     = "FTE01"  // D_FL
)

// Single-agency file layout markers.
const (
	// DetailMarker is the fte type literal identifying per-department
	// FTE detail rows; other fte types in the detail block are
	// sub-aggregation noise.
	DetailMarker = "nb of ftes"

	// SectionMarkerDepartment is the department name whose row begins
	// the grand-total/aggregate block of a single-agency file.
	SectionMarkerDepartment = "service/documentation center"

	// BranchTotalColumn marks the first aggregate column of a
	// single-agency file; it and everything after it is truncated.
	BranchTotalColumn = "total for all branches"
)

// DepartmentCodePrefix is prepended to the grid's raw numeric department
// code to form the department FC code.
const DepartmentCodePrefix = "x"

// SentinelUnmappedCode is assigned to detail rows whose department name
// failed fuzzy matching when the sentinel policy is active.
const SentinelUnmappedCode = "unmapped"

// SectionField selects which field a grand-total block lookup matches on.
type SectionField int

const (
	SectionFieldDepartment SectionField = iota
	SectionFieldFTEType
)

// SectionCode maps a fixed aggregate-row label to its business department
// code. Rows of the grand-total block that match none of these are not
// representable in the output schema and are dropped.
type SectionCode struct {
	Label string
	Field SectionField
	Code  string
}

// SectionCodes is the central table of hardcoded aggregate-row business
// codes (grand total, trainees, temporary contracts, long-term leaves).
func SectionCodes() []SectionCode {
	return []SectionCode{
		{Label: "grand total", Field: SectionFieldDepartment, Code: "x9000"},
		{Label: "nb of trainees", Field: SectionFieldFTEType, Code: "x9100"},
		{Label: "nb of temporary contracts", Field: SectionFieldFTEType, Code: "x9200"},
		{Label: "nb of long-term leaves", Field: SectionFieldFTEType, Code: "x9300"},
	}
}

// SentinelValues are cell values that mark a row as incomplete/unassigned
// during completeness filtering, in addition to true-missing cells.
func SentinelValues() []string {
	return []string{"not assigned", "not included"}
}

// DateStamp carries one resolved month with its display renderings.
type DateStamp struct {
	Date   time.Time
	Long   string // "January 2026"
	Short  string // "Jan 2026"
	Number string // "2026 01"
}

// Period renders the stamp in the FC upload period format, YYYY.MM.
func (s DateStamp) Period() string {
	return s.Date.Format("2006.01")
}

// FileSuffix renders the stamp for output file naming, YYYY-MM.
func (s DateStamp) FileSuffix() string {
	return s.Date.Format("2006-01")
}

// DateContext is derived once per run from the (month, year) input and
// carries the current reporting month plus the previous one.
type DateContext struct {
	Current  DateStamp
	Previous DateStamp
}

// NewDateContext builds the run date context from the reporting year and
// month. The month must be in the 1-12 range.
func NewDateContext(year, month int) (*DateContext, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("year out of range: %d", year)
	}

	current := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	previous := current.AddDate(0, -1, 0)

	return &DateContext{
		Current:  newDateStamp(current),
		Previous: newDateStamp(previous),
	}, nil
}

func newDateStamp(date time.Time) DateStamp {
	return DateStamp{
		Date:   date,
		Long:   date.Format("January 2006"),
		Short:  date.Format("Jan 2006"),
		Number: date.Format("2006 01"),
	}
}

// ParsePeriod parses a canonical "YYYY-MM" period value into its date and
// decomposed year/month.
func ParsePeriod(value string) (time.Time, int, int, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return time.Time{}, 0, 0, fmt.Errorf("invalid year-month value '%s': %w", value, err)
	}
	return t, t.Year(), int(t.Month()), nil
}
