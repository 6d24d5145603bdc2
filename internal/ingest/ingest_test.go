package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sales-etl/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const ordersCSV = "PK Sales Order,Postal Code,Country Code,Created At,Sales Channel\n" +
	"o1,811 01,SK,2023-01-15 10:30:00,web\n" +
	"o2,04001,SK,2023-02-01 09:00:00.123456,store\n"

const itemsCSV = "fk_sales_order,fk_item,product_price_local_currency,sold_qty,product_cost_eur\n" +
	"o1,p1,10,2,4\n" +
	"o1,p2,5,1,2\n"

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "pk_sales_order", NormalizeColumn("PK Sales Order"))
	assert.Equal(t, "pk_sales_order", NormalizeColumn("  pk_sales_order "))
	assert.Equal(t, "created_at", NormalizeColumn("Created\tAt"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	ordersPath := writeFile(t, dir, "orders.csv", ordersCSV)
	itemsPath := writeFile(t, dir, "items.csv", itemsCSV)

	res, err := Load(ordersPath, itemsPath)
	require.NoError(t, err)

	require.Len(t, res.Orders, 2)
	assert.Equal(t, "o1", res.Orders[0].ID)
	assert.Equal(t, "811 01", res.Orders[0].PostalCode)
	assert.Equal(t, "web", res.Orders[0].Extra["sales_channel"])

	require.Len(t, res.Items, 2)
	assert.Equal(t, 10.0, res.Items[0].Price)
	assert.Equal(t, 2.0, res.Items[0].Qty)
	assert.Equal(t, 4.0, res.Items[0].Cost)
	assert.Equal(t, 20.0, res.Items[0].LineTotal())
	assert.Equal(t, 12.0, res.Items[0].Margin())
}

func TestLoadSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	ordersPath := writeFile(t, dir, "orders.csv", "pk_sales_order,postal_code\n o1,81101\n")
	itemsPath := writeFile(t, dir, "items.csv", itemsCSV)

	_, err := Load(ordersPath, itemsPath)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "country_code")
}

func TestLoadNonNumericPrice(t *testing.T) {
	dir := t.TempDir()
	ordersPath := writeFile(t, dir, "orders.csv", ordersCSV)
	bad := strings.Replace(itemsCSV, "o1,p1,10,2,4", "o1,p1,abc,2,4", 1)
	itemsPath := writeFile(t, dir, "items.csv", bad)

	_, err := Load(ordersPath, itemsPath)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrTypeConversion))
	assert.Contains(t, err.Error(), "product_price_local_currency")
}

func TestWriteCleaned(t *testing.T) {
	dir := t.TempDir()
	ordersPath := writeFile(t, dir, "orders.csv", ordersCSV)
	itemsPath := writeFile(t, dir, "items.csv", itemsCSV)

	res, err := Load(ordersPath, itemsPath)
	require.NoError(t, err)

	outDir := filepath.Join(dir, "out")
	require.NoError(t, res.WriteCleaned(outDir))

	cleaned, err := os.ReadFile(filepath.Join(outDir, "orders_cleaned.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(cleaned)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "pk_sales_order,postal_code,country_code,created_at,sales_channel", lines[0])
	assert.Equal(t, "o1,811 01,SK,2023-01-15 10:30:00,web", lines[1])

	items, err := os.ReadFile(filepath.Join(outDir, "items_cleaned.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(items), "o1,p1,10,2,4")
}
