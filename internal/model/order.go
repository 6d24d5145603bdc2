// Package model holds the domain types shared across the ETL stages.
package model

// Order is a single sales order. OrderValue and the place fields are derived:
// OrderValue is nil until valuation runs, and stays nil for orders with no
// matching line items. PlaceName defaults to UnknownPlace when no postal
// reference row matches.
type Order struct {
	ID          string
	PostalCode  string
	CountryCode string
	CreatedAt   string
	OrderValue  *float64
	PlaceName   string
	Latitude    *float64
	Longitude   *float64

	// Extra carries the full cleaned source row (normalized column name →
	// value) so passthrough columns survive into the enriched output.
	Extra map[string]string
}

// Item is one line item of a sales order.
type Item struct {
	OrderID   string
	ProductID string
	Price     float64
	Qty       float64
	Cost      float64

	Extra map[string]string
}

// LineTotal returns price × quantity for the line.
func (i Item) LineTotal() float64 {
	return i.Price * i.Qty
}

// Margin returns (price − cost) × quantity for the line.
func (i Item) Margin() float64 {
	return (i.Price - i.Cost) * i.Qty
}

// IsDefect reports whether the line looks like a data-quality defect
// (zero price with a positive cost, typically a gift or bundle line).
// Defect lines are excluded from the pair and margin analyses.
func (i Item) IsDefect() bool {
	return i.Price == 0 && i.Cost > 0
}
