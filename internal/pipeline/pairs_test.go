package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sales-etl/internal/model"
)

func TestTopProductPairs(t *testing.T) {
	orders := []model.Order{{ID: "o1"}, {ID: "o2"}, {ID: "o3"}, {ID: "o4"}}
	items := []model.Item{
		// o1: A+B
		{OrderID: "o1", ProductID: "A", Price: 1, Qty: 1},
		{OrderID: "o1", ProductID: "B", Price: 1, Qty: 1},
		// o2: B+A (reverse order) plus a duplicate A line
		{OrderID: "o2", ProductID: "B", Price: 1, Qty: 1},
		{OrderID: "o2", ProductID: "A", Price: 1, Qty: 2},
		{OrderID: "o2", ProductID: "A", Price: 1, Qty: 1},
		// o3: A+C
		{OrderID: "o3", ProductID: "A", Price: 1, Qty: 1},
		{OrderID: "o3", ProductID: "C", Price: 1, Qty: 1},
		// o4: single product, still in the denominator
		{OrderID: "o4", ProductID: "D", Price: 1, Qty: 1},
	}

	pairs := TopProductPairs(orders, items)
	require.Len(t, pairs, 2)

	assert.Equal(t, "A", pairs[0].Product1)
	assert.Equal(t, "B", pairs[0].Product2)
	assert.Equal(t, 2, pairs[0].Count)
	assert.InDelta(t, 50.0, pairs[0].PercentOfOrders, 1e-9)

	assert.Equal(t, "A", pairs[1].Product1)
	assert.Equal(t, "C", pairs[1].Product2)
	assert.Equal(t, 1, pairs[1].Count)
	assert.InDelta(t, 25.0, pairs[1].PercentOfOrders, 1e-9)
}

func TestTopProductPairsExcludesDefects(t *testing.T) {
	orders := []model.Order{{ID: "o1"}}
	items := []model.Item{
		{OrderID: "o1", ProductID: "A", Price: 1, Qty: 1},
		{OrderID: "o1", ProductID: "B", Price: 0, Qty: 1, Cost: 2},
	}
	assert.Empty(t, TopProductPairs(orders, items))
}

func TestTopProductPairsExcludesUnknownOrders(t *testing.T) {
	orders := []model.Order{{ID: "o1"}}
	items := []model.Item{
		{OrderID: "ghost", ProductID: "A", Price: 1, Qty: 1},
		{OrderID: "ghost", ProductID: "B", Price: 1, Qty: 1},
	}
	assert.Nil(t, TopProductPairs(orders, items))
}

func TestTopProductPairsNullProductStillCounted(t *testing.T) {
	orders := []model.Order{{ID: "o1"}, {ID: "o2"}}
	items := []model.Item{
		{OrderID: "o1", ProductID: "A", Price: 1, Qty: 1},
		{OrderID: "o1", ProductID: "B", Price: 1, Qty: 1},
		// o2 has only a null product id line; it widens the denominator.
		{OrderID: "o2", Price: 1, Qty: 1},
	}

	pairs := TopProductPairs(orders, items)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 50.0, pairs[0].PercentOfOrders, 1e-9)
}

func TestTopProductPairsLimitAndTieBreak(t *testing.T) {
	// 12 orders, each buying a distinct pair (P00,P01), (P02,P03), ...
	// All counts tie at 1, so ordering falls back to product ids.
	var orders []model.Order
	var items []model.Item
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("o%d", i)
		orders = append(orders, model.Order{ID: id})
		items = append(items,
			model.Item{OrderID: id, ProductID: fmt.Sprintf("P%02d", 2*i), Price: 1, Qty: 1},
			model.Item{OrderID: id, ProductID: fmt.Sprintf("P%02d", 2*i+1), Price: 1, Qty: 1},
		)
	}

	pairs := TopProductPairs(orders, items)
	require.Len(t, pairs, 10)
	assert.Equal(t, "P00", pairs[0].Product1)
	assert.Equal(t, "P01", pairs[0].Product2)
	assert.Equal(t, "P18", pairs[9].Product1)
}

func TestTopProductPairsEmpty(t *testing.T) {
	assert.Nil(t, TopProductPairs(nil, nil))
}
