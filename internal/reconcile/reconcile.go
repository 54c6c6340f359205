// Package reconcile implements the reconciliation engine: set differences
// between the agencies the reference mapping expects and the agencies a
// dataset snapshot actually contains, plus the console reporting of those
// discrepancies.
//
// Reconciliation findings are business-visible conditions, not software
// defects: they are reported in full detail and the run continues.
package reconcile

import (
	"sort"

	"fte-grid-service/internal/models"
)

// Result holds the two agency sets of one reconciliation pass.
type Result struct {
	// Missing agencies are present in the mapping but absent from the
	// data snapshot.
	Missing []string
	// Extra agencies are present in the data snapshot but absent from
	// the mapping.
	Extra []string
}

// IsClean reports whether both sets are empty.
func (r *Result) IsClean() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

// Reconcile computes the set differences between the reference agency set
// and the observed agency set. Inputs are already lowercased upstream, so
// the comparison is case-insensitive by construction. Both outputs are
// sorted for deterministic reporting.
func Reconcile(reference, observed map[string]bool) *Result {
	result := &Result{}

	for agency := range reference {
		if !observed[agency] {
			result.Missing = append(result.Missing, agency)
		}
	}
	for agency := range observed {
		if !reference[agency] {
			result.Extra = append(result.Extra, agency)
		}
	}

	sort.Strings(result.Missing)
	sort.Strings(result.Extra)
	return result
}

// AgencySet collects the distinct agency names observed in a dataset
// snapshot.
func AgencySet(records []models.GridRecord) map[string]bool {
	set := make(map[string]bool)
	for _, record := range records {
		set[record.Agency] = true
	}
	return set
}

// FileCheck is the cross-check of single-agency files against the
// currently missing agencies.
type FileCheck struct {
	// NotProvided agencies are missing from the grid but no
	// single-agency file was supplied for them.
	NotProvided []string
	// Surplus agencies had a single-agency file supplied although they
	// were not actually missing.
	Surplus []string
}

// IsClean reports whether supplied files exactly cover the missing set.
func (c *FileCheck) IsClean() bool {
	return len(c.NotProvided) == 0 && len(c.Surplus) == 0
}

// CrossCheck compares the agencies supplied via single-agency files with
// the missing set. It distinguishes gaps (missing but no file) from
// surplus files (file supplied, agency not missing); neither halts the
// run.
func CrossCheck(supplied, missing []string) *FileCheck {
	suppliedSet := make(map[string]bool, len(supplied))
	for _, agency := range supplied {
		suppliedSet[agency] = true
	}
	missingSet := make(map[string]bool, len(missing))
	for _, agency := range missing {
		missingSet[agency] = true
	}

	check := &FileCheck{}
	for agency := range missingSet {
		if !suppliedSet[agency] {
			check.NotProvided = append(check.NotProvided, agency)
		}
	}
	for agency := range suppliedSet {
		if !missingSet[agency] {
			check.Surplus = append(check.Surplus, agency)
		}
	}

	sort.Strings(check.NotProvided)
	sort.Strings(check.Surplus)
	return check
}
