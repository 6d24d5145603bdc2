package pipeline

import "github.com/sells-group/sales-etl/internal/model"

// AttachOrderValues sums line totals per order and left-joins the result onto
// the orders. Orders with no matching items keep a nil OrderValue; absence of
// items is a distinct condition from zero-value items and is never coerced
// to zero.
func AttachOrderValues(orders []model.Order, items []model.Item) []model.Order {
	totals := make(map[string]float64, len(orders))
	matched := make(map[string]bool, len(orders))
	for _, it := range items {
		totals[it.OrderID] += it.LineTotal()
		matched[it.OrderID] = true
	}

	out := make([]model.Order, len(orders))
	for i, o := range orders {
		if matched[o.ID] {
			v := totals[o.ID]
			o.OrderValue = &v
		}
		out[i] = o
	}
	return out
}
