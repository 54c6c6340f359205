// Package consolidate implements the merge and aggregate stage: it unions
// the primary grid with the parsed single-agency datasets, enriches the
// merged grid with country-mapping attributes, and partitions the result
// into usable rows and an avoided-rows audit trail.
package consolidate

import (
	"sort"
	"strconv"
	"strings"

	"fte-grid-service/internal/mapping"
	"fte-grid-service/internal/models"
	"fte-grid-service/internal/tabular"
	"fte-grid-service/pkg/logger"
)

// AgencyData holds the parsed datasets of one single-agency file. Only
// the FTE detail partition participates in the merge.
type AgencyData struct {
	FTE []models.GridRecord
}

// Merge appends every single-agency FTE dataset to the primary grid. The
// union is by row concatenation, never key deduplication: preventing an
// agency from appearing in both sources is the reconciliation engine's
// responsibility upstream. The result is sorted by (agency, branch,
// department FC code) for determinism.
func Merge(grid []models.GridRecord, agencies map[string]*AgencyData) []models.GridRecord {
	log := logger.WithComponent("consolidate")

	merged := make([]models.GridRecord, 0, len(grid))
	merged = append(merged, grid...)

	names := make([]string, 0, len(agencies))
	for name := range agencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		merged = append(merged, agencies[name].FTE...)
		log.WithFields(logger.Fields{
			"agency": name,
			"rows":   len(agencies[name].FTE),
		}).Infof("%s: data integrated to the agency grid set", name)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Agency != merged[j].Agency {
			return merged[i].Agency < merged[j].Agency
		}
		if merged[i].Branch != merged[j].Branch {
			return merged[i].Branch < merged[j].Branch
		}
		return merged[i].DepartmentFCCode < merged[j].DepartmentFCCode
	})

	return merged
}

// Enrich left-joins country-mapping attributes onto the merged grid on
// (agency, branch) and applies the non-standard department special case:
// rows whose fte type is one of the reserved trailing mapping labels get
// that label's department FC code directly, bypassing the name join.
func Enrich(records []models.GridRecord, countries *mapping.CountryMap, departments *mapping.DepartmentMap) []models.EnrichedRecord {
	nonStandard := make(map[string]string)
	for _, label := range departments.NonStandardLabels() {
		nonStandard[label.Department] = label.DepartmentFCCode
	}

	enriched := make([]models.EnrichedRecord, 0, len(records))
	for _, record := range records {
		out := models.EnrichedRecord{
			Agency:           record.Agency,
			Branch:           record.Branch,
			CEORegion:        record.CEORegion,
			RegionalDirector: record.RegionalDirector,
			DepartmentFCCode: record.DepartmentFCCode,
			NFTE:             record.NFTE,
			Month:            record.Month,
			Year:             record.Year,
			Date:             record.Date,
		}

		if code, ok := nonStandard[record.FTEType]; ok {
			out.DepartmentFCCode = code
		}

		if matches := countries.Lookup(record.Agency, record.Branch); len(matches) > 0 {
			match := matches[0]
			out.AgencyCode = match.AgencyCode
			out.FCCode = match.FCCode
			out.ContinentSplit = match.ContinentSplit
			out.Currency = match.Currency
			if out.CEORegion == "" {
				out.CEORegion = match.CEORegion
			}
			if out.RegionalDirector == "" {
				out.RegionalDirector = match.RegionalDirector
			}
		}

		enriched = append(enriched, out)
	}

	return enriched
}

// Filter partitions enriched records into avoided rows (any missing or
// sentinel cell across the full row) and kept rows, both projected to the
// seven-column subset. The partitions are exhaustive and disjoint; the
// avoided partition is an audit trail, never silently dropped.
func Filter(records []models.EnrichedRecord) (avoided, kept []models.FilteredRecord) {
	log := logger.WithComponent("consolidate")

	for _, record := range records {
		projected := models.FilteredRecord{
			Date:             record.Date,
			Agency:           record.Agency,
			Branch:           record.Branch,
			FCCode:           record.FCCode,
			DepartmentFCCode: record.DepartmentFCCode,
			Currency:         record.Currency,
			NFTE:             record.NFTE,
		}
		if isAvoided(record) {
			avoided = append(avoided, projected)
		} else {
			kept = append(kept, projected)
		}
	}

	log.WithFields(logger.Fields{
		"avoided": len(avoided),
		"kept":    len(kept),
	}).Info("Completeness filter applied")
	return avoided, kept
}

// isAvoided reports whether any cell across the full enriched row is
// missing or one of the literal incompleteness sentinels.
func isAvoided(record models.EnrichedRecord) bool {
	cells := []string{
		record.AgencyCode,
		record.Agency,
		record.FCCode,
		record.Branch,
		record.CEORegion,
		record.ContinentSplit,
		record.RegionalDirector,
		record.DepartmentFCCode,
		record.Currency,
	}
	for _, cell := range cells {
		if isIncomplete(cell) {
			return true
		}
	}
	return record.Date.IsZero() || record.Month == 0 || record.Year == 0
}

func isIncomplete(cell string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	if cell == "" {
		return true
	}
	for _, sentinel := range models.SentinelValues() {
		if cell == sentinel {
			return true
		}
	}
	return false
}

// EnrichedTable renders enriched records into the canonical thirteen
// column tabular form for output writing.
func EnrichedTable(records []models.EnrichedRecord) *tabular.Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.AgencyCode,
			r.Agency,
			r.FCCode,
			r.Branch,
			r.CEORegion,
			r.ContinentSplit,
			r.RegionalDirector,
			r.DepartmentFCCode,
			r.NFTE.String(),
			r.Currency,
			itoa(r.Month),
			itoa(r.Year),
			r.Date.Format("2006-01-02"),
		}
	}
	return tabular.New(models.EnrichedColumns(), rows)
}

// FilteredTable renders filtered records into the seven-column tabular
// form for output writing.
func FilteredTable(records []models.FilteredRecord) *tabular.Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Date.Format("2006-01-02"),
			r.Agency,
			r.Branch,
			r.FCCode,
			r.DepartmentFCCode,
			r.Currency,
			r.NFTE.String(),
		}
	}
	return tabular.New(models.FilteredColumns(), rows)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
