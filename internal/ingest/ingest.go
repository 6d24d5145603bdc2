// Package ingest loads the raw order and item tables, normalizes headers,
// verifies the expected schema, casts numeric columns, and persists cleaned
// copies for auditability.
package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sales-etl/internal/fetcher"
	"github.com/sells-group/sales-etl/internal/model"
)

// Table is a cleaned tabular input: normalized column names plus rows keyed
// by those names. Columns preserves source order for deterministic output.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Order table required columns.
var requiredOrderColumns = []string{"pk_sales_order", "postal_code", "country_code", "created_at"}

// Item table required columns. The three numeric ones are cast at load time.
var (
	requiredItemColumns = []string{"fk_sales_order", "fk_item", "product_price_local_currency", "sold_qty", "product_cost_eur"}
	numericItemColumns  = []string{"product_price_local_currency", "sold_qty", "product_cost_eur"}
)

// NormalizeColumn lowercases a header and collapses whitespace runs to single
// underscores, so "PK Sales Order" and "pk_sales_order" agree.
func NormalizeColumn(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}

// LoadTable reads a CSV or XLSX file (by extension) and normalizes its
// header. Duplicate normalized columns keep the first occurrence.
func LoadTable(path string) (*Table, error) {
	var raw *fetcher.Table
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		raw, err = fetcher.ReadXLSXTable(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		raw, err = fetcher.ReadCSVTable(f)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}

	t := &Table{}
	colIdx := make(map[string]int, len(raw.Header))
	for i, col := range raw.Header {
		name := NormalizeColumn(col)
		if _, ok := colIdx[name]; ok {
			continue
		}
		colIdx[name] = i
		t.Columns = append(t.Columns, name)
	}

	t.Rows = make([]map[string]string, len(raw.Rows))
	for i := range raw.Rows {
		row := make(map[string]string, len(t.Columns))
		for _, name := range t.Columns {
			row[name] = raw.Cell(i, colIdx[name])
		}
		t.Rows[i] = row
	}

	return t, nil
}

// checkSchema verifies every required column is present after normalization.
func checkSchema(t *Table, required []string, table string) error {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}
	for _, c := range required {
		if !present[c] {
			return eris.Wrapf(model.ErrSchemaMismatch, "%s: missing required column %q", table, c)
		}
	}
	return nil
}

// castNumeric rewrites the named columns in place as canonical float strings,
// failing on the first non-numeric value.
func castNumeric(t *Table, columns []string, table string) error {
	for i, row := range t.Rows {
		for _, col := range columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return eris.Wrapf(model.ErrTypeConversion,
					"%s: column %s row %d: %q is not numeric", table, col, i, row[col])
			}
			row[col] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return nil
}

// Result holds the cleaned tables and their typed projections.
type Result struct {
	OrdersTable *Table
	ItemsTable  *Table
	Orders      []model.Order
	Items       []model.Item
}

// Load reads, validates, and types the order and item tables.
func Load(ordersPath, itemsPath string) (*Result, error) {
	orders, err := LoadTable(ordersPath)
	if err != nil {
		return nil, err
	}
	if err := checkSchema(orders, requiredOrderColumns, "orders"); err != nil {
		return nil, err
	}

	items, err := LoadTable(itemsPath)
	if err != nil {
		return nil, err
	}
	if err := checkSchema(items, requiredItemColumns, "items"); err != nil {
		return nil, err
	}
	if err := castNumeric(items, numericItemColumns, "items"); err != nil {
		return nil, err
	}

	res := &Result{OrdersTable: orders, ItemsTable: items}

	res.Orders = make([]model.Order, len(orders.Rows))
	for i, row := range orders.Rows {
		res.Orders[i] = model.Order{
			ID:          row["pk_sales_order"],
			PostalCode:  row["postal_code"],
			CountryCode: row["country_code"],
			CreatedAt:   row["created_at"],
			Extra:       row,
		}
	}

	res.Items = make([]model.Item, len(items.Rows))
	for i, row := range items.Rows {
		// castNumeric already validated these three.
		price, _ := strconv.ParseFloat(row["product_price_local_currency"], 64)
		qty, _ := strconv.ParseFloat(row["sold_qty"], 64)
		cost, _ := strconv.ParseFloat(row["product_cost_eur"], 64)
		res.Items[i] = model.Item{
			OrderID:   row["fk_sales_order"],
			ProductID: strings.TrimSpace(row["fk_item"]),
			Price:     price,
			Qty:       qty,
			Cost:      cost,
			Extra:     row,
		}
	}

	zap.L().Info("ingest: tables loaded",
		zap.Int("orders", len(res.Orders)),
		zap.Int("items", len(res.Items)),
	)
	return res, nil
}

// WriteCleaned persists the cleaned copies of both tables. Inputs are never
// mutated; these files exist for audit and downstream reuse.
func (r *Result) WriteCleaned(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return eris.Wrap(err, "ingest: create output dir")
	}
	if err := writeTable(filepath.Join(outputDir, "orders_cleaned.csv"), r.OrdersTable); err != nil {
		return err
	}
	return writeTable(filepath.Join(outputDir, "items_cleaned.csv"), r.ItemsTable)
}

func writeTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "ingest: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return eris.Wrapf(err, "ingest: write header %s", path)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "ingest: write row %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "ingest: flush %s", path)
	}
	return nil
}
