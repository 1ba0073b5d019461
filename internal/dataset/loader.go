package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/validation"
)

// DefaultSheet is the worksheet read when none is configured
const DefaultSheet = "Sheet1"

// Table is the untransformed content of one worksheet. Header is the
// first sheet row and Rows the remaining rows, cells as stored.
type Table struct {
	Source string
	Sheet  string
	Header []string
	Rows   [][]string
}

// SheetRow returns the 1-based worksheet row number of Rows[i]
func (t *Table) SheetRow(i int) int {
	return i + 2
}

// Cell returns the trimmed value at row i, column col, or "" when the
// row is shorter than col.
func (t *Table) Cell(i, col int) string {
	row := t.Rows[i]
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Load reads sheet from the xlsx workbook at path
func Load(path, sheet string) (*Table, error) {
	if _, err := validation.NewWorkbookValidator(nil).ValidateWorkbook(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apierrors.NewDataSourceError(fmt.Sprintf("failed to open workbook %s", path), err).
			WithContext("path", path)
	}
	defer f.Close()

	return readSheet(f, path, sheet)
}

// LoadReader reads sheet from an xlsx workbook stream
func LoadReader(r io.Reader, name, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewDataSourceError(fmt.Sprintf("failed to read workbook %s", name), err)
	}
	defer f.Close()

	return readSheet(f, name, sheet)
}

func readSheet(f *excelize.File, source, sheet string) (*Table, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, apierrors.NewDataSourceError(
			fmt.Sprintf("sheet %q not found in %s (available: %s)", sheet, source, strings.Join(f.GetSheetList(), ", ")), err).
			WithContext("sheet", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apierrors.NewDataSourceError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}

	table := &Table{Source: source, Sheet: sheet}
	if len(rows) > 0 {
		table.Header = rows[0]
		table.Rows = rows[1:]
	}

	return table, nil
}
