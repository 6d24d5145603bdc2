package pipeline

import (
	"sort"

	"github.com/sells-group/sales-etl/internal/model"
)

const maxPairCount = 10

// TopProductPairs counts, for every order, the unordered pairs of distinct
// products bought together, and returns the ten most frequent pairs with
// their share of all considered orders. Defect lines (zero price, positive
// cost) and items whose order id does not exist in the order set are
// excluded first; orders with fewer than two distinct products contribute no
// pairs but still count toward the percentage denominator. The frequency
// counter is local to this call; nothing persists between runs.
func TopProductPairs(orders []model.Order, items []model.Item) []model.ProductPair {
	known := make(map[string]bool, len(orders))
	for _, o := range orders {
		known[o.ID] = true
	}

	// Distinct products per order, insertion order irrelevant: pairs are
	// generated from the sorted product set so (A,B) and (B,A) collapse.
	// Orders whose surviving items all have null product ids still count
	// toward the denominator.
	products := make(map[string]map[string]bool)
	considered := make(map[string]bool)
	for _, it := range items {
		if it.IsDefect() || !known[it.OrderID] {
			continue
		}
		considered[it.OrderID] = true
		if it.ProductID == "" {
			continue
		}
		if products[it.OrderID] == nil {
			products[it.OrderID] = make(map[string]bool)
		}
		products[it.OrderID][it.ProductID] = true
	}

	type pairKey struct{ a, b string }
	counts := make(map[pairKey]int)
	for _, set := range products {
		if len(set) < 2 {
			continue
		}
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				counts[pairKey{ids[i], ids[j]}]++
			}
		}
	}

	totalOrders := len(considered)
	if totalOrders == 0 {
		return nil
	}

	pairs := make([]model.ProductPair, 0, len(counts))
	for k, c := range counts {
		pairs = append(pairs, model.ProductPair{
			Product1:        k.a,
			Product2:        k.b,
			Count:           c,
			PercentOfOrders: float64(c) / float64(totalOrders) * 100,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].Product1 != pairs[j].Product1 {
			return pairs[i].Product1 < pairs[j].Product1
		}
		return pairs[i].Product2 < pairs[j].Product2
	})

	if len(pairs) > maxPairCount {
		pairs = pairs[:maxPairCount]
	}
	return pairs
}
