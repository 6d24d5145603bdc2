// Package reference builds the postal-code reference table from per-country
// ZIP archives, each containing a single CSV with columns zipcode, place,
// latitude, longitude.
package reference

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sales-etl/internal/config"
	"github.com/sells-group/sales-etl/internal/fetcher"
	"github.com/sells-group/sales-etl/internal/model"
)

// Loader fetches and normalizes postal-code reference data.
type Loader struct {
	httpOpts fetcher.HTTPOptions
}

// NewLoader creates a Loader. The HTTP options also bound FTP timeouts for
// ftp:// sources.
func NewLoader(httpOpts fetcher.HTTPOptions) *Loader {
	return &Loader{httpOpts: httpOpts}
}

// Load fetches every country archive and returns the unioned reference table.
// Countries are fetched concurrently but assembled in the order given, so the
// first-occurrence dedup tie-break (scoped per country) is unaffected. Any
// fetch or parse failure aborts the whole load; geo enrichment cannot run on
// partial reference data.
func (l *Loader) Load(ctx context.Context, sources []config.CountrySource) ([]model.PostalReference, error) {
	perCountry := make([][]model.PostalReference, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			refs, err := l.loadCountry(gctx, src)
			if err != nil {
				return eris.Wrapf(err, "reference: load %s", src.Code)
			}
			perCountry[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.PostalReference
	for _, refs := range perCountry {
		all = append(all, refs...)
	}
	return all, nil
}

// loadCountry downloads one archive, extracts its CSV, normalizes rows, and
// deduplicates by postal code keeping the first-seen row.
func (l *Loader) loadCountry(ctx context.Context, src config.CountrySource) ([]model.PostalReference, error) {
	log := zap.L().With(zap.String("country", src.Code))
	log.Info("reference: downloading postal archive", zap.String("url", src.URL))

	f, err := fetcher.ForURL(src.URL, l.httpOpts)
	if err != nil {
		return nil, err
	}

	body, err := f.Download(ctx, src.URL)
	if err != nil {
		return nil, eris.Wrap(err, "download archive")
	}
	defer body.Close() //nolint:errcheck

	zipData, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "read archive body")
	}

	entryName, csvData, err := fetcher.ExtractCSV(zipData)
	if err != nil {
		return nil, err
	}

	table, err := fetcher.ReadCSVTable(bytes.NewReader(csvData))
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", entryName)
	}

	refs, err := normalizeTable(table, src.Code)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize %s", entryName)
	}

	deduped := dedupeFirstSeen(refs)
	log.Info("reference: country loaded",
		zap.Int("rows", len(refs)),
		zap.Int("unique_postal_codes", len(deduped)),
	)
	return deduped, nil
}

// requiredColumns are the four columns the archive CSV must carry.
var requiredColumns = []string{"zipcode", "place", "latitude", "longitude"}

func normalizeTable(table *fetcher.Table, countryCode string) ([]model.PostalReference, error) {
	idx := make(map[string]int, len(table.Header))
	for i, col := range table.Header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, eris.Wrapf(model.ErrSchemaMismatch, "missing column %q", col)
		}
	}

	refs := make([]model.PostalReference, 0, len(table.Rows))
	for i := range table.Rows {
		lat, err := parseFloatCol(table.Cell(i, idx["latitude"]), "latitude", i)
		if err != nil {
			return nil, err
		}
		lon, err := parseFloatCol(table.Cell(i, idx["longitude"]), "longitude", i)
		if err != nil {
			return nil, err
		}

		place := strings.TrimSpace(table.Cell(i, idx["place"]))
		if place == "" {
			place = model.UnknownPlace
		}

		refs = append(refs, model.PostalReference{
			PostalCode:  NormalizePostalCode(table.Cell(i, idx["zipcode"])),
			CountryCode: countryCode,
			PlaceName:   place,
			Latitude:    lat,
			Longitude:   lon,
		})
	}
	return refs, nil
}

func parseFloatCol(s, col string, row int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(model.ErrTypeConversion, "column %s row %d: %q is not numeric", col, row, s)
	}
	return v, nil
}

// NormalizePostalCode removes all whitespace and left-pads with zeros to
// 5 characters. Codes already 5 characters or longer pass through unchanged.
func NormalizePostalCode(code string) string {
	code = strings.Join(strings.Fields(code), "")
	for len(code) < 5 {
		code = "0" + code
	}
	return code
}

// dedupeFirstSeen keeps the first row per postal code, preserving input order.
// The tie-break is deliberately "first occurrence in source order"; callers
// must not rely on anything stronger.
func dedupeFirstSeen(refs []model.PostalReference) []model.PostalReference {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if _, ok := seen[r.PostalCode]; ok {
			continue
		}
		seen[r.PostalCode] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Index builds the (postal_code, country_code) lookup used by geo enrichment.
func Index(refs []model.PostalReference) map[Key]model.PostalReference {
	m := make(map[Key]model.PostalReference, len(refs))
	for _, r := range refs {
		k := Key{PostalCode: r.PostalCode, CountryCode: r.CountryCode}
		if _, ok := m[k]; !ok {
			m[k] = r
		}
	}
	return m
}

// Key is the composite join key of the reference table.
type Key struct {
	PostalCode  string
	CountryCode string
}
