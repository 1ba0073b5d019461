package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Header is the column row of the published dropout workbook
var Header = []interface{}{
	"Level", "Nama Kabupaten/Kota",
	"Jumlah Putus SD", "Jumlah Putus SMP", "Jumlah Putus SMA", "Jumlah Putus SMK",
}

// SampleRows returns a workbook with one province row and five regencies
// forming two clear groups plus an all-zero region. The regency counts
// sum to 545.
func SampleRows() [][]interface{} {
	return [][]interface{}{
		Header,
		{"Provinsi", "Jawa Tengah", 1000, 1000, 1000, 1000},
		{"Kabupaten/Kota", "Kab. A", 100, 10, 5, 2},
		{"Kabupaten/Kota", "Kab. B", 102, 11, 6, 3},
		{"Kabupaten/Kota", "Kab. C", 5, 50, 60, 40},
		{"Kabupaten/Kota", "Kab. D", 4, 48, 58, 41},
		{"Kabupaten/Kota", "Kab. E", 0, 0, 0, 0},
	}
}

// WriteWorkbook saves rows to Sheet1 of a new workbook under t.TempDir
// and returns its path
func WriteWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}

	path := filepath.Join(t.TempDir(), "dropout.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}
