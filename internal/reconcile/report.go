package reconcile

import (
	"fmt"
	"io"
	"strings"

	"fte-grid-service/internal/models"
)

const reportDivider = "============================================================"

// Reporter renders reconciliation results in the fixed two-tier console
// format.
type Reporter struct {
	w     io.Writer
	dates *models.DateContext
}

// NewReporter creates a reporter writing to w, stamped with the run's
// date context.
func NewReporter(w io.Writer, dates *models.DateContext) *Reporter {
	return &Reporter{w: w, dates: dates}
}

// ReportAgencies renders the missing and extra agency sets, with a
// specific all-clear message when a set is empty.
func (r *Reporter) ReportAgencies(result *Result) {
	sections := []struct {
		label    string
		agencies []string
	}{
		{"missing", result.Missing},
		{"additional", result.Extra},
	}

	for _, section := range sections {
		fmt.Fprintln(r.w, reportDivider)
		if len(section.agencies) == 0 {
			fmt.Fprintf(r.w, "No %s agencies using the current mapping as our benchmark\n", section.label)
			continue
		}
		fmt.Fprintf(r.w, "%s agencies in current month (%s):\n",
			capitalize(section.label), r.dates.Current.Long)
		for _, agency := range section.agencies {
			fmt.Fprintf(r.w, "  - %s\n", capitalize(agency))
		}
	}
	fmt.Fprintln(r.w, reportDivider)
}

// ReportFileCheck renders the single-file cross-check, with the banner
// format for offending sets and an all-clear line otherwise.
func (r *Reporter) ReportFileCheck(check *FileCheck) {
	if len(check.NotProvided) > 0 {
		fmt.Fprintln(r.w, "Among the missing agencies, the following ones were not loaded via a single file")
		fmt.Fprintf(r.w, ">>>>   %s   <<<<\n", joinCapitalized(check.NotProvided))
	} else {
		fmt.Fprintln(r.w, "All missing agencies were loaded via single files")
	}

	if len(check.Surplus) > 0 {
		fmt.Fprintln(r.w, "More agency single files than needed were input. REMOVE THEM!!")
		fmt.Fprintf(r.w, ">>>>   %s   <<<<\n", joinCapitalized(check.Surplus))
	} else {
		fmt.Fprintln(r.w, "Single files matched the missing agencies")
	}
}

func joinCapitalized(agencies []string) string {
	capitalized := make([]string, len(agencies))
	for i, agency := range agencies {
		capitalized[i] = capitalize(agency)
	}
	return strings.Join(capitalized, ", ")
}

// capitalize upper-cases the first letter for display; data stays
// lowercase internally.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
