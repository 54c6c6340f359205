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

// WriteTable persists a tabular result to the named output location. The
// output format is selected by extension (.csv or .xlsx).
func WriteTable(path string, t *tabular.Table) error {
	log := logger.WithComponent("loader")

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = writeCSV(path, t)
	case ".xlsx":
		err = writeWorkbook(path, t)
	default:
		return pkgerrors.FileError(pkgerrors.CodeUnknownExtension, path, nil)
	}
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"file_path": path,
		"rows":      t.RowCount(),
		"columns":   t.ColumnCount(),
	}).Info("Output file written")
	return nil
}

func writeCSV(path string, t *tabular.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Columns); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	return nil
}

func writeWorkbook(path string, t *tabular.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	if err := setSheetRow(f, sheet, 1, t.Columns); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	for i, row := range t.Rows {
		if err := setSheetRow(f, sheet, i+2, row); err != nil {
			return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	return nil
}

func setSheetRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}
