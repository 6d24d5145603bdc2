package pipeline

import (
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sales-etl/internal/model"
)

// createdAtLayout is the expected order timestamp format. time.Parse also
// accepts an unadvertised fractional-seconds suffix, which covers the
// optional .ffffff variant.
const createdAtLayout = "2006-01-02 15:04:05"

// MonthlyProductMargins inner-joins items to orders to pick up the order
// timestamp, computes per-line margin, and averages by (product, calendar
// month). Defect lines and items with null product ids or unknown orders are
// excluded. Output is sorted by product id then month ascending.
func MonthlyProductMargins(orders []model.Order, items []model.Item) ([]model.MonthlyMargin, error) {
	createdAt := make(map[string]string, len(orders))
	for _, o := range orders {
		createdAt[o.ID] = o.CreatedAt
	}

	type key struct {
		product string
		month   time.Time
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)

	for i, it := range items {
		if it.ProductID == "" || it.IsDefect() {
			continue
		}
		raw, ok := createdAt[it.OrderID]
		if !ok {
			continue
		}

		ts, err := time.Parse(createdAtLayout, raw)
		if err != nil {
			return nil, eris.Wrapf(model.ErrDateParse,
				"margin: column created_at row %d: %q does not match %q", i, raw, createdAtLayout)
		}
		month := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)

		k := key{product: it.ProductID, month: month}
		sums[k] += it.Margin()
		counts[k]++
	}

	out := make([]model.MonthlyMargin, 0, len(sums))
	for k, sum := range sums {
		out = append(out, model.MonthlyMargin{
			ProductID: k.product,
			YearMonth: k.month,
			AvgMargin: sum / float64(counts[k]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return lessProductID(out[i].ProductID, out[j].ProductID)
		}
		return out[i].YearMonth.Before(out[j].YearMonth)
	})
	return out, nil
}

// lessProductID orders product ids numerically when both parse as integers,
// lexicographically otherwise. Source systems use numeric ids; string sort
// would put "10" before "2".
func lessProductID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
