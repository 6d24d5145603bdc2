package fetcher

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// Table is a fully materialized tabular input: a header row plus data rows.
// Rows may be ragged; missing trailing cells read as empty strings via Cell.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the value of row i at column index col, or "" when the row is
// shorter than the header.
func (t *Table) Cell(i, col int) string {
	if col < 0 || col >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][col]
}

// ReadCSVTable reads an entire CSV into a Table. The first record is the
// header. The pipeline is batch, so inputs are materialized in full.
func ReadCSVTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty input, no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, record)
	}

	return &Table{Header: header, Rows: rows}, nil
}
