// Package loader is the data-loading and data-sink collaborator of the
// FTE grid pipeline.
//
// It turns external files into raw tabular data and persists tabular
// results to named output locations. CSV files are read with encoding/csv;
// spreadsheet workbooks are read and written with excelize. Each file is
// read fully into memory once and handed off by value; there is no
// streaming or partial reading.
package loader

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"
	"fte-grid-service/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// LoadTable loads a tabular file into a raw Table. The file format is
// selected by extension: .csv is read as delimited text, .xlsx/.xls as a
// workbook (with sheet selecting the worksheet, first sheet when empty).
// An unrecognized extension is a fatal configuration error.
func LoadTable(path, sheet string) (*tabular.Table, error) {
	log := logger.WithComponent("loader")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		log.WithField("file_path", path).Info("Data file loading - CSV file")
		return loadCSV(path)
	case ".xlsx", ".xls":
		log.WithFields(logger.Fields{
			"file_path": path,
			"sheet":     sheet,
		}).Info("Data file loading - Excel file")
		return loadWorkbookSheet(path, sheet)
	default:
		return nil, pkgerrors.FileError(pkgerrors.CodeUnknownExtension, path, nil)
	}
}

// LoadSingleAgency loads a single-agency spreadsheet. The agency name is
// read from the top-left header cell; the body starts on the second row,
// with that row as the (partially anonymous) header.
func LoadSingleAgency(path string) (string, *tabular.Table, error) {
	log := logger.WithComponent("loader")

	rows, err := readWorkbookRows(path, "")
	if err != nil {
		return "", nil, err
	}
	if len(rows) < 2 {
		return "", nil, pkgerrors.ParseError(
			pkgerrors.CodeMissingSection, path, "agency header and body rows", nil)
	}

	agency := ""
	if len(rows[0]) > 0 {
		agency = strings.ToLower(strings.TrimSpace(rows[0][0]))
	}
	if agency == "" {
		return "", nil, pkgerrors.ParseError(
			pkgerrors.CodeMissingSection, path, "agency name in top-left cell", nil)
	}

	header := rows[1]
	table := tabular.New(header, rows[2:])

	log.WithFields(logger.Fields{
		"agency":    agency,
		"file_path": path,
		"rows":      table.RowCount(),
	}).Infof("Single agency file for: %s", agency)

	return agency, table, nil
}

func loadCSV(path string) (*tabular.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.FileError(pkgerrors.CodeFileNotFound, path, err)
		}
		return nil, pkgerrors.FileError(pkgerrors.CodeFileUnreadable, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeMissingColumn, path, "csv content", err)
	}
	if len(records) == 0 {
		return nil, pkgerrors.ParseError(pkgerrors.CodeMissingColumn, path, "header row", nil)
	}

	return tabular.New(records[0], records[1:]), nil
}

func loadWorkbookSheet(path, sheet string) (*tabular.Table, error) {
	rows, err := readWorkbookRows(path, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.ParseError(pkgerrors.CodeMissingColumn, path, "header row", nil)
	}
	return tabular.New(rows[0], rows[1:]), nil
}

// readWorkbookRows reads all rows of one worksheet. An empty sheet name
// selects the first sheet of the workbook.
func readWorkbookRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.FileError(pkgerrors.CodeFileNotFound, path, err)
		}
		return nil, pkgerrors.FileError(pkgerrors.CodeFileUnreadable, path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, pkgerrors.ParseError(pkgerrors.CodeMissingSheet, path, sheet, err)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, pkgerrors.FileError(pkgerrors.CodeFileUnreadable, path, err)
	}
	return rows, nil
}
