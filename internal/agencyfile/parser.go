// Package agencyfile implements the single-agency layout parser.
//
// A single-agency spreadsheet is semi-structured: two anonymous leading
// columns hold the department name and the fte type, one column per branch
// holds the values, and a marker row splits per-department FTE detail from
// a grand-total/aggregate block (overtime hours, trainee counts, temporary
// contracts, long leaves). Department names are resolved against the
// department mapping by fuzzy matching; the wide branch columns are
// unpivoted into one record per (branch, department).
package agencyfile

import (
	"strings"

	"fte-grid-service/internal/mapping"
	"fte-grid-service/internal/models"
	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"
	"fte-grid-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// ParseStats counts what the parser kept and dropped, for auditability of
// the otherwise silent exclusions.
type ParseStats struct {
	DetailRows           int
	AggregateRows        int
	UnmatchedDepartments int
	DroppedRows          int
	OutputRecords        int
}

// Parser extracts FTE records from canonicalized single-agency tables.
type Parser struct {
	config      *MatcherConfig
	departments *mapping.DepartmentMap
	logger      logger.Logger
}

// NewParser creates a single-agency parser bound to a department mapping.
func NewParser(config *MatcherConfig, departments *mapping.DepartmentMap) (*Parser, error) {
	if config == nil {
		config = DefaultMatcherConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, err.Error(), err)
	}
	if departments == nil {
		return nil, pkgerrors.ConfigurationError(
			pkgerrors.CodeInvalidConfig, "department mapping is required", nil)
	}

	return &Parser{
		config:      config,
		departments: departments,
		logger:      logger.WithComponent("agency_parser"),
	}, nil
}

// sectionRow is one classified row of the file body: its resolved
// department FC code, its fte type, and its branch cells.
type sectionRow struct {
	departmentFCCode string
	fteType          string
	cells            []string
}

// Parse extracts the normalized long-format dataset from one
// canonicalized single-agency table. Every output record carries the
// agency name and the run's canonical date, year and month.
func (p *Parser) Parse(agency string, t *tabular.Table, dates *models.DateContext) ([]models.GridRecord, *ParseStats, error) {
	log := p.logger.WithField("agency", agency)
	stats := &ParseStats{}

	t = t.Clone()
	t.RenameAt(0, "department")
	t.RenameAt(1, "fte type")

	// Missing-value string forms become true nulls across the body.
	for _, row := range t.Rows {
		for j, cell := range row {
			if tabular.IsMissing(cell) {
				row[j] = ""
			}
		}
	}

	totalIdx := t.ColumnIndex(models.BranchTotalColumn)
	if totalIdx == -1 {
		return nil, nil, pkgerrors.ParseError(
			pkgerrors.CodeMissingColumn, agency, models.BranchTotalColumn, nil)
	}
	t.TruncateColumns(totalIdx)
	if t.ColumnCount() <= 2 {
		return nil, nil, pkgerrors.ParseError(
			pkgerrors.CodeMissingSection, agency,
			"no branch columns before '"+models.BranchTotalColumn+"'", nil)
	}

	// Fix-ups cover the two text columns and the branch headers; the
	// branch value cells are amounts and must not be rewritten.
	for _, row := range t.Rows {
		row[0] = tabular.FixupValue(row[0])
		row[1] = tabular.FixupValue(row[1])
	}
	for j := 2; j < len(t.Columns); j++ {
		t.Columns[j] = tabular.FixupValue(t.Columns[j])
	}

	detail, aggregate := splitSections(t)
	if aggregate == nil {
		log.Warnf("Section marker '%s' not found, treating every row as FTE detail",
			models.SectionMarkerDepartment)
	}

	rows, err := p.classifyDetail(agency, detail, stats)
	if err != nil {
		return nil, nil, err
	}
	rows = append(rows, p.classifyAggregate(aggregate, stats)...)

	branches := t.Columns[2:]
	records, err := unpivot(agency, rows, branches, dates)
	if err != nil {
		return nil, nil, err
	}
	stats.OutputRecords = len(records)

	log.WithFields(logger.Fields{
		"detail_rows":           stats.DetailRows,
		"aggregate_rows":        stats.AggregateRows,
		"unmatched_departments": stats.UnmatchedDepartments,
		"dropped_rows":          stats.DroppedRows,
		"output_records":        stats.OutputRecords,
	}).Info("Single-agency file parsed")

	return records, stats, nil
}

// splitSections splits the body at the section marker row: rows before it
// are the FTE detail block, the marker row onward is the
// grand-total/aggregate block. A nil aggregate table means the marker was
// absent.
func splitSections(t *tabular.Table) (*tabular.Table, *tabular.Table) {
	deptIdx := t.ColumnIndex("department")
	for i, row := range t.Rows {
		if row[deptIdx] == models.SectionMarkerDepartment {
			detail := &tabular.Table{Columns: t.Columns, Rows: t.Rows[:i]}
			aggregate := &tabular.Table{Columns: t.Columns, Rows: t.Rows[i:]}
			return detail, aggregate
		}
	}
	return t, nil
}

// classifyDetail resolves department FC codes for the detail block by
// fuzzy matching and keeps only the rows carrying the literal detail
// marker fte type; other fte types are sub-aggregation noise.
func (p *Parser) classifyDetail(agency string, t *tabular.Table, stats *ParseStats) ([]sectionRow, error) {
	codes := make(map[string]string)
	names := p.departments.Names()

	var rows []sectionRow
	for i := 0; i < t.RowCount(); i++ {
		if t.Cell(i, "fte type") != models.DetailMarker {
			continue
		}

		department := t.Cell(i, "department")
		code, seen := codes[department]
		if !seen {
			matched, resolved, err := p.resolveDepartment(agency, department, names, stats)
			if err != nil {
				return nil, err
			}
			if !matched {
				codes[department] = ""
				stats.DroppedRows++
				continue
			}
			code = resolved
			codes[department] = code
		}
		if code == "" {
			stats.DroppedRows++
			continue
		}

		stats.DetailRows++
		rows = append(rows, sectionRow{
			departmentFCCode: code,
			fteType:          t.Cell(i, "fte type"),
			cells:            t.Rows[i][2:],
		})
	}
	return rows, nil
}

// resolveDepartment fuzzy-matches one distinct department name against the
// mapping. Behavior below the cutoff follows the configured policy.
func (p *Parser) resolveDepartment(agency, department string, names []string, stats *ParseStats) (bool, string, error) {
	match, score, ok := p.config.BestMatch(department, names)
	if ok {
		code, _ := p.departments.CodeFor(match)
		p.logger.WithFields(logger.Fields{
			"agency":     agency,
			"department": department,
			"matched":    match,
			"score":      score,
		}).Debug("Department resolved by fuzzy match")
		return true, code, nil
	}

	stats.UnmatchedDepartments++
	switch p.config.Policy {
	case PolicyFail:
		return false, "", pkgerrors.ValidationError(
			pkgerrors.CodeUnmatchedDepartment, department, nil).
			WithContext("agency", agency).
			WithContext("cutoff", p.config.Cutoff)
	case PolicySentinel:
		p.logger.WithFields(logger.Fields{
			"agency":     agency,
			"department": department,
		}).Warn("Department unmatched, assigning sentinel code")
		return true, models.SentinelUnmappedCode, nil
	default: // PolicyFlag
		p.logger.WithFields(logger.Fields{
			"agency":     agency,
			"department": department,
			"cutoff":     p.config.Cutoff,
		}).Warn("Department unmatched, dropping rows")
		return false, "", nil
	}
}

// classifyAggregate assigns the fixed business codes to the grand-total
// block by exact label match on department name or fte type. Rows matching
// no label are not representable in the output schema and are dropped.
func (p *Parser) classifyAggregate(t *tabular.Table, stats *ParseStats) []sectionRow {
	if t == nil {
		return nil
	}

	var rows []sectionRow
	for i := 0; i < t.RowCount(); i++ {
		code := sectionCodeFor(t.Cell(i, "department"), t.Cell(i, "fte type"))
		if code == "" {
			stats.DroppedRows++
			continue
		}
		stats.AggregateRows++
		rows = append(rows, sectionRow{
			departmentFCCode: code,
			fteType:          t.Cell(i, "fte type"),
			cells:            t.Rows[i][2:],
		})
	}
	return rows
}

func sectionCodeFor(department, fteType string) string {
	for _, sc := range models.SectionCodes() {
		switch sc.Field {
		case models.SectionFieldDepartment:
			if department == sc.Label {
				return sc.Code
			}
		case models.SectionFieldFTEType:
			if fteType == sc.Label {
				return sc.Code
			}
		}
	}
	return ""
}

// unpivot turns the wide branch columns into one record per
// (row, branch). Missing values become zero; a present cell that does
// not parse as a decimal is a fatal parse error, never a silent zero.
func unpivot(agency string, rows []sectionRow, branches []string, dates *models.DateContext) ([]models.GridRecord, error) {
	records := make([]models.GridRecord, 0, len(rows)*len(branches))
	for _, row := range rows {
		for b, branch := range branches {
			value := decimal.Zero
			if b < len(row.cells) {
				if cell := strings.TrimSpace(row.cells[b]); cell != "" {
					parsed, err := decimal.NewFromString(cell)
					if err != nil {
						return nil, pkgerrors.ParseError(
							pkgerrors.CodeInvalidAmount, agency, cell, err).
							WithContext("branch", branch).
							WithContext("department_fc_code", row.departmentFCCode)
					}
					value = parsed
				}
			}

			records = append(records, models.GridRecord{
				Agency:           agency,
				Branch:           branch,
				DepartmentFCCode: row.departmentFCCode,
				FTEType:          row.fteType,
				NFTE:             value,
				Month:            int(dates.Current.Date.Month()),
				Year:             dates.Current.Date.Year(),
				Date:             dates.Current.Date,
			})
		}
	}
	return records, nil
}
