package pipeline

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/sales-etl/internal/model"
)

// existingStores are the cities that already have a store. Candidate cities
// are ranked by distance to the nearest of these.
var existingStores = []string{"Košice", "Budapest", "Praha"}

const (
	earthRadiusKM     = 6371
	minCandidateKM    = 50
	maxCandidateCount = 5
)

// TopStoreCandidates aggregates sales per city, computes each city's
// great-circle distance to the nearest existing store, filters out cities
// within minCandidateKM of existing coverage, and returns up to five
// candidates sorted descending by total sales, ties broken by descending
// minimum distance. Store coordinates are the first-seen coordinates among
// the enriched orders for that store city; if no store city appears at all,
// there is nothing to measure against and no candidates are returned.
func TopStoreCandidates(orders []model.Order) []model.CityAggregate {
	type cityKey struct {
		place    string
		lat, lon float64
	}

	// Aggregate sales by (place, lat, lon). Orders without coordinates
	// (unmatched postal codes) have no location to recommend and are skipped.
	totals := make(map[cityKey]float64)
	var order []cityKey
	for _, o := range orders {
		if o.Latitude == nil || o.Longitude == nil {
			continue
		}
		k := cityKey{place: o.PlaceName, lat: *o.Latitude, lon: *o.Longitude}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		if o.OrderValue != nil {
			totals[k] += *o.OrderValue
		}
	}

	// First-seen coordinates per existing store city.
	stores := make(map[string][2]float64, len(existingStores))
	for _, o := range orders {
		if o.Latitude == nil || o.Longitude == nil {
			continue
		}
		for _, s := range existingStores {
			if o.PlaceName == s {
				if _, ok := stores[s]; !ok {
					stores[s] = [2]float64{*o.Latitude, *o.Longitude}
				}
			}
		}
	}
	if len(stores) == 0 {
		zap.L().Warn("candidates: no existing store city found in enriched orders")
		return nil
	}

	var candidates []model.CityAggregate
	for _, k := range order {
		minDist := math.Inf(1)
		for _, coords := range stores {
			if d := haversineKM(k.lat, k.lon, coords[0], coords[1]); d < minDist {
				minDist = d
			}
		}
		if minDist <= minCandidateKM {
			continue
		}
		candidates = append(candidates, model.CityAggregate{
			PlaceName:     k.place,
			Latitude:      k.lat,
			Longitude:     k.lon,
			TotalSales:    totals[k],
			MinDistanceKM: minDist,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].TotalSales != candidates[j].TotalSales {
			return candidates[i].TotalSales > candidates[j].TotalSales
		}
		return candidates[i].MinDistanceKM > candidates[j].MinDistanceKM
	})

	if len(candidates) > maxCandidateCount {
		candidates = candidates[:maxCandidateCount]
	}
	return candidates
}

// haversineKM returns the great-circle distance between two points in
// kilometers, using the mean Earth radius.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
