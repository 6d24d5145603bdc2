package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sales-etl/internal/ingest"
	"github.com/sells-group/sales-etl/internal/model"
)

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestWriteEnrichedOrders(t *testing.T) {
	dir := t.TempDir()
	table := &ingest.Table{Columns: []string{"pk_sales_order", "postal_code", "country_code", "created_at"}}

	v := 25.0
	lat, lon := 48.1447, 17.1077
	orders := []model.Order{
		{
			ID: "o1", PostalCode: "81101", CountryCode: "SK",
			OrderValue: &v, PlaceName: "Bratislava", Latitude: &lat, Longitude: &lon,
			Extra: map[string]string{
				"pk_sales_order": "o1", "postal_code": "81101.0",
				"country_code": "SK", "created_at": "2024-01-05 10:30:00",
			},
		},
		{
			ID: "o2", PostalCode: "99999", CountryCode: "SK", PlaceName: model.UnknownPlace,
			Extra: map[string]string{
				"pk_sales_order": "o2", "postal_code": "99999",
				"country_code": "SK", "created_at": "2024-01-06 09:00:00",
			},
		},
	}

	require.NoError(t, WriteEnrichedOrders(dir, table, orders))

	got := readOutput(t, dir, FileOrdersEnriched)
	want := "pk_sales_order,postal_code,country_code,created_at,order_value,place_name,latitude,longitude\n" +
		"o1,81101,SK,2024-01-05 10:30:00,25,Bratislava,48.1447,17.1077\n" +
		"o2,99999,SK,2024-01-06 09:00:00,,Unknown,,\n"
	assert.Equal(t, want, got)
}

func TestWriteCityRecommendationsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteCityRecommendations(dir, nil))

	got := readOutput(t, dir, FileTopCities)
	assert.Equal(t, "place_name,latitude,longitude,total_sales,min_distance_km\n", got)
}

func TestWriteProductPairs(t *testing.T) {
	dir := t.TempDir()
	pairs := []model.ProductPair{
		{Product1: "A", Product2: "B", Count: 3, PercentOfOrders: 75},
	}
	require.NoError(t, WriteProductPairs(dir, pairs))

	got := readOutput(t, dir, FileTopPairs)
	assert.Equal(t, "product_1,product_2,count,percent_of_orders\nA,B,3,75\n", got)
}

func TestWriteMonthlyMargins(t *testing.T) {
	dir := t.TempDir()
	margins := []model.MonthlyMargin{
		{
			ProductID: "7",
			YearMonth: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			AvgMargin: 12.5,
		},
	}
	require.NoError(t, WriteMonthlyMargins(dir, margins))

	got := readOutput(t, dir, FileMonthlyMargin)
	assert.Equal(t, "fk_item,year_month,avg_margin\n7,2024-03-01,12.5\n", got)
}

func TestWriteManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := model.Manifest{
		RunID:      "r1",
		Status:     model.RunStatusCompleted,
		StartedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC),
		Outputs:    map[string]int{FileTopCities: 5},
		StageMS:    map[string]int64{"reference": 1200},
	}
	require.NoError(t, WriteManifest(dir, m))

	var got model.Manifest
	data, err := os.ReadFile(filepath.Join(dir, FileManifest))
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &got))

	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 5, got.Outputs[FileTopCities])
	assert.Equal(t, int64(1200), got.StageMS["reference"])
}
