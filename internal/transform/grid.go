// Package transform implements the grid transformer: it reshapes the
// canonicalized primary multi-agency monthly dataset into typed grid
// records and validates it against the countries mapping.
package transform

import (
	"fmt"
	"strings"

	"fte-grid-service/internal/mapping"
	"fte-grid-service/internal/models"
	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"
	"fte-grid-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// gridSource names the grid input in diagnostics.
const gridSource = "monthly grid"

// TransformGrid converts the canonicalized monthly grid into typed
// records: fix-ups are applied, the period column becomes the canonical
// date field with year and month decomposed, the FTE measure is coerced
// to a decimal, and the department FC code is derived from the raw
// department code. Fix-ups run on the grid as well as the mappings so
// (agency, branch) join keys that agree in the raw files keep agreeing.
//
// The countries mapping is joined on (agency, branch) as a validation
// step: the join must preserve the row count exactly. A mapping that fans
// out (duplicate key) or any other count change is a fatal data-integrity
// condition.
func TransformGrid(t *tabular.Table, countries *mapping.CountryMap) ([]models.GridRecord, error) {
	log := logger.WithComponent("grid_transformer")

	t = tabular.ApplyFixups(t)
	t.Rename("kpi year month", "date")
	t.Rename("description", "fte type")
	t.Rename("current total # employees", "n fte")

	if err := t.Require(gridSource,
		"date", "fte type", "n fte", "kpi agency", "branch",
		"ceo region", "regional director", "department code"); err != nil {
		return nil, err
	}

	records := make([]models.GridRecord, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		date, year, month, err := models.ParsePeriod(t.Cell(i, "date"))
		if err != nil {
			return nil, pkgerrors.ParseError(
				pkgerrors.CodeInvalidDate, gridSource, t.Cell(i, "date"), err)
		}

		nFTE, err := parseFTE(t.Cell(i, "n fte"))
		if err != nil {
			return nil, pkgerrors.ParseError(
				pkgerrors.CodeInvalidAmount, gridSource, t.Cell(i, "n fte"), err)
		}

		records = append(records, models.GridRecord{
			Agency:           t.Cell(i, "kpi agency"),
			Branch:           t.Cell(i, "branch"),
			CEORegion:        t.Cell(i, "ceo region"),
			RegionalDirector: t.Cell(i, "regional director"),
			DepartmentFCCode: DeriveDepartmentFCCode(t.Cell(i, "department code")),
			FTEType:          t.Cell(i, "fte type"),
			NFTE:             nFTE,
			Month:            month,
			Year:             year,
			Date:             date,
		})
	}

	if err := validateMappingJoin(records, countries); err != nil {
		return nil, err
	}

	log.WithField("rows", len(records)).Infof(
		"Data were not lost in the transformation, still %d rows", len(records))
	return records, nil
}

// DeriveDepartmentFCCode wraps the grid's raw numeric department code into
// the prefixed alphanumeric department FC code.
func DeriveDepartmentFCCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, models.DepartmentCodePrefix) {
		return raw
	}
	return models.DepartmentCodePrefix + raw
}

// parseFTE coerces an FTE cell to a decimal. A missing value is zero;
// anything else must parse.
func parseFTE(value string) (decimal.Decimal, error) {
	if tabular.IsMissing(value) {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(value))
}

// validateMappingJoin performs the left join of grid records against the
// countries mapping on (agency, branch) and verifies it is row-count
// preserving. Unmatched rows survive (left join); a key matching more than
// one mapping row fans the count out and is reported as a fatal mismatch.
func validateMappingJoin(records []models.GridRecord, countries *mapping.CountryMap) error {
	log := logger.WithComponent("grid_transformer")

	joined := 0
	unmatched := 0
	for _, record := range records {
		matches := countries.Lookup(record.Agency, record.Branch)
		if len(matches) == 0 {
			unmatched++
			joined++
			continue
		}
		joined += len(matches)
	}

	if joined != len(records) {
		return pkgerrors.ValidationError(
			pkgerrors.CodeRowCountMismatch,
			fmt.Sprintf("raw data rows: %d, joined rows: %d", len(records), joined),
			nil)
	}

	if unmatched > 0 {
		log.WithField("unmatched_rows", unmatched).Warn(
			"Grid rows without a countries-mapping entry carry empty reference attributes")
	}
	return nil
}
