package model

import "time"

// CityAggregate is one city's sales total plus its distance to the nearest
// existing store.
type CityAggregate struct {
	PlaceName     string  `csv:"place_name"`
	Latitude      float64 `csv:"latitude"`
	Longitude     float64 `csv:"longitude"`
	TotalSales    float64 `csv:"total_sales"`
	MinDistanceKM float64 `csv:"min_distance_km"`
}

// ProductPair is an unordered pair of distinct products bought together,
// with its co-occurrence count across orders.
type ProductPair struct {
	Product1        string  `csv:"product_1"`
	Product2        string  `csv:"product_2"`
	Count           int     `csv:"count"`
	PercentOfOrders float64 `csv:"percent_of_orders"`
}

// MonthlyMargin is the average line margin for one product in one calendar
// month. YearMonth is always the first day of the month, UTC.
type MonthlyMargin struct {
	ProductID string    `csv:"fk_item"`
	YearMonth time.Time `csv:"year_month"`
	AvgMargin float64   `csv:"avg_margin"`
}
