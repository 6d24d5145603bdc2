package model

// UnknownPlace is the sentinel place name used when a postal code has no
// reference match or the reference row has no place name.
const UnknownPlace = "Unknown"

// PostalReference is one row of the postal-code reference table. PostalCode is
// unique only within a country, so joins always key on (PostalCode,
// CountryCode).
type PostalReference struct {
	PostalCode  string  `csv:"postal_code"`
	CountryCode string  `csv:"country_code"`
	PlaceName   string  `csv:"place_name"`
	Latitude    float64 `csv:"latitude"`
	Longitude   float64 `csv:"longitude"`
}
