package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/sales-etl/internal/model"
	"github.com/sells-group/sales-etl/internal/reference"
)

// majorCities is the fixed canonicalization list, applied in this order.
// A later rule overwrites an earlier match only if the prefixes collide.
var majorCities = []string{"Bratislava", "Košice", "Praha", "Brno", "Budapest"}

// EnrichOrders joins orders to the postal reference table on (postal_code,
// country_code) with left-join semantics. The order's postal code is
// normalized first (numeric-typed exports leave a trailing ".0" artifact).
// Unmatched orders keep their other fields with PlaceName set to the Unknown
// sentinel and nil coordinates. Resolved place names are then canonicalized
// against the major-city list.
func EnrichOrders(orders []model.Order, refs map[reference.Key]model.PostalReference) []model.Order {
	out := make([]model.Order, len(orders))
	for i, o := range orders {
		o.PostalCode = NormalizeOrderPostalCode(o.PostalCode)

		ref, ok := refs[reference.Key{PostalCode: o.PostalCode, CountryCode: o.CountryCode}]
		if ok {
			lat, lon := ref.Latitude, ref.Longitude
			o.PlaceName = canonicalizeCity(ref.PlaceName)
			o.Latitude = &lat
			o.Longitude = &lon
		} else {
			o.PlaceName = model.UnknownPlace
		}
		out[i] = o
	}
	return out
}

// NormalizeOrderPostalCode strips the trailing ".0" float artifact and then
// applies the same whitespace strip and zero-padding as the reference side.
func NormalizeOrderPostalCode(code string) string {
	code = strings.TrimSuffix(strings.TrimSpace(code), ".0")
	return reference.NormalizePostalCode(code)
}

// canonicalizeCity rewrites any place name that is a case-insensitive,
// diacritic-insensitive prefix match of a canonical major city to that
// canonical form ("Bratislava - Ružinov" → "Bratislava", "kosice III" →
// "Košice"). Rules apply in list order.
func canonicalizeCity(place string) string {
	folded := foldCity(place)
	name := place
	for _, city := range majorCities {
		if strings.HasPrefix(folded, foldCity(city)) {
			name = city
		}
	}
	return name
}

var cityFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldCity lowercases and strips combining marks so prefix comparison is
// diacritic-insensitive.
func foldCity(s string) string {
	folded, _, err := transform.String(cityFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
