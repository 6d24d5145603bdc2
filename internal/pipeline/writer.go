package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sales-etl/internal/ingest"
	"github.com/sells-group/sales-etl/internal/model"
)

// Output file names. The dashboard reads exactly these, read-only.
const (
	FileOrdersCleaned  = "orders_cleaned.csv"
	FileItemsCleaned   = "items_cleaned.csv"
	FileOrdersEnriched = "orders_enriched.csv"
	FileTopCities      = "top_5_city_recommendations.csv"
	FileTopPairs       = "top_10_product_pairs.csv"
	FileMonthlyMargin  = "monthly_product_margin.csv"
	FileManifest       = "run_manifest.yaml"
)

// derivedOrderColumns are appended to the source order columns in the
// enriched output.
var derivedOrderColumns = []string{"order_value", "place_name", "latitude", "longitude"}

// WriteEnrichedOrders writes orders_enriched.csv: every cleaned order column
// (postal_code holding the normalized value) plus the derived value and place
// columns. Nil order values and coordinates render as empty cells.
func WriteEnrichedOrders(outputDir string, table *ingest.Table, orders []model.Order) error {
	path := filepath.Join(outputDir, FileOrdersEnriched)
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "writer: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	header := append(append([]string{}, table.Columns...), derivedOrderColumns...)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "writer: enriched header")
	}

	record := make([]string, len(header))
	for _, o := range orders {
		for i, col := range table.Columns {
			if col == "postal_code" {
				record[i] = o.PostalCode
				continue
			}
			record[i] = o.Extra[col]
		}
		n := len(table.Columns)
		record[n] = formatOptFloat(o.OrderValue)
		record[n+1] = o.PlaceName
		record[n+2] = formatOptFloat(o.Latitude)
		record[n+3] = formatOptFloat(o.Longitude)
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "writer: enriched row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "writer: flush enriched")
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteCityRecommendations writes top_5_city_recommendations.csv.
func WriteCityRecommendations(outputDir string, cities []model.CityAggregate) error {
	if cities == nil {
		cities = []model.CityAggregate{}
	}
	return writeCSVFile(filepath.Join(outputDir, FileTopCities), cities)
}

// WriteProductPairs writes top_10_product_pairs.csv.
func WriteProductPairs(outputDir string, pairs []model.ProductPair) error {
	if pairs == nil {
		pairs = []model.ProductPair{}
	}
	return writeCSVFile(filepath.Join(outputDir, FileTopPairs), pairs)
}

// monthlyMarginRow is the output projection of a MonthlyMargin; year_month is
// rendered as the first day of the month.
type monthlyMarginRow struct {
	ProductID string `csv:"fk_item"`
	YearMonth string `csv:"year_month"`
	AvgMargin string `csv:"avg_margin"`
}

// WriteMonthlyMargins writes monthly_product_margin.csv.
func WriteMonthlyMargins(outputDir string, margins []model.MonthlyMargin) error {
	rows := make([]monthlyMarginRow, len(margins))
	for i, m := range margins {
		rows[i] = monthlyMarginRow{
			ProductID: m.ProductID,
			YearMonth: m.YearMonth.Format("2006-01-02"),
			AvgMargin: strconv.FormatFloat(m.AvgMargin, 'f', -1, 64),
		}
	}
	return writeCSVFile(filepath.Join(outputDir, FileMonthlyMargin), rows)
}

// writeCSVFile marshals rows (struct slice with csv tags) to path, fully
// overwriting any previous run's file. An empty slice writes just the header
// row; downstream consumers tolerate empty tables.
func writeCSVFile[T any](path string, rows []T) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrapf(err, "writer: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "writer: write %s", path)
	}
	return nil
}

// WriteManifest writes run_manifest.yaml, the run completion marker.
func WriteManifest(outputDir string, m model.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "writer: marshal manifest")
	}
	path := filepath.Join(outputDir, FileManifest)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "writer: write %s", path)
	}
	return nil
}
