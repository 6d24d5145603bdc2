package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("orders")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSXTable(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"PK Sales Order", "Postal Code"},
		{"o1", "81101"},
		{"o2", "04001"},
	})

	table, err := ReadXLSXTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PK Sales Order", "Postal Code"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "04001", table.Cell(1, 1))
}

func TestReadXLSXTableMissingFile(t *testing.T) {
	_, err := ReadXLSXTable(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
