// Package fcexport builds the financial-consolidation upload dataset: a
// dense cross-product of entity and department codes per period, with FTE
// amounts summed from the filtered grid and absent combinations carried
// explicitly as zero.
package fcexport

import (
	"fmt"
	"sort"
	"strings"

	"fte-grid-service/internal/models"
	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"
	"fte-grid-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// BuildUpload aggregates filtered records into upload rows. For every
// period in the input, each distinct FC code is crossed with each distinct
// department code, so the upload always carries the full combination
// matrix. Codes and currencies are upper-cased on the way out, matching
// the target system's conventions.
func BuildUpload(records []models.FilteredRecord) ([]models.FCUploadRecord, error) {
	log := logger.WithComponent("fcexport")

	currencies, err := currencyByEntity(records)
	if err != nil {
		return nil, err
	}

	type key struct {
		period     string
		entity     string
		department string
	}

	sums := make(map[key]decimal.Decimal)
	periods := make(map[string]bool)
	entities := make(map[string]map[string]bool)
	departments := make(map[string]map[string]bool)

	for _, record := range records {
		period := record.Date.Format("2006.01")
		periods[period] = true
		if entities[period] == nil {
			entities[period] = make(map[string]bool)
			departments[period] = make(map[string]bool)
		}
		entities[period][record.FCCode] = true
		departments[period][record.DepartmentFCCode] = true

		k := key{period, record.FCCode, record.DepartmentFCCode}
		sums[k] = sums[k].Add(record.NFTE)
	}

	var upload []models.FCUploadRecord
	for period := range periods {
		for entity := range entities[period] {
			for department := range departments[period] {
				amount := sums[key{period, entity, department}]
				upload = append(upload, models.FCUploadRecord{
					Category:       models.UploadCategory,
					Audit:          models.UploadAudit,
					Flag:           models.UploadFlag,
					Period:         period,
					EntityCode:     strings.ToUpper(entity),
					Currency:       strings.ToUpper(currencies[entity]),
					DepartmentCode: strings.ToUpper(department),
					Amount:         amount,
				})
			}
		}
	}

	sort.SliceStable(upload, func(i, j int) bool {
		if upload[i].Period != upload[j].Period {
			return upload[i].Period < upload[j].Period
		}
		if upload[i].EntityCode != upload[j].EntityCode {
			return upload[i].EntityCode < upload[j].EntityCode
		}
		return upload[i].DepartmentCode < upload[j].DepartmentCode
	})

	log.WithFields(logger.Fields{
		"input_rows":  len(records),
		"upload_rows": len(upload),
	}).Info("FC upload dataset built")

	return upload, nil
}

// currencyByEntity collects the reporting currency of each FC code. An FC
// code seen with two different currencies makes the upload meaningless,
// so that is fatal.
func currencyByEntity(records []models.FilteredRecord) (map[string]string, error) {
	currencies := make(map[string]string)
	for _, record := range records {
		existing, seen := currencies[record.FCCode]
		if !seen {
			currencies[record.FCCode] = record.Currency
			continue
		}
		if existing != record.Currency {
			return nil, pkgerrors.New(pkgerrors.CategoryValidation, pkgerrors.CodeAmbiguousFCCode,
				fmt.Sprintf("FC code '%s' carries conflicting currencies", record.FCCode)).
				WithContext("currencies", []string{existing, record.Currency}).
				WithSuggestion("Fix the currency column of the countries mapping so each FC code carries exactly one currency")
		}
	}
	return currencies, nil
}

// UploadTable renders upload records into the fixed-column tabular form
// for output writing.
func UploadTable(records []models.FCUploadRecord) *tabular.Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Category,
			r.Audit,
			r.Flag,
			r.Period,
			r.EntityCode,
			r.Currency,
			r.DepartmentCode,
			r.Amount.String(),
		}
	}
	return tabular.New(models.UploadColumns(), rows)
}
