package reference

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sales-etl/internal/config"
	"github.com/sells-group/sales-etl/internal/fetcher"
	"github.com/sells-group/sales-etl/internal/model"
)

func zipWithCSV(t *testing.T, name, csvContent string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func serveArchives(t *testing.T, archives map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := archives[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadSingleCountry(t *testing.T) {
	csv := "zipcode,place,latitude,longitude\n" +
		"811 01,Bratislava,48.14,17.10\n" +
		"81101,Bratislava - duplicate,48.15,17.11\n" +
		"40,Tiny,48.00,17.00\n" +
		"04001,,48.72,21.25\n"
	srv := serveArchives(t, map[string][]byte{"/SK.zip": zipWithCSV(t, "SK.csv", csv)})

	l := NewLoader(fetcher.HTTPOptions{})
	refs, err := l.Load(context.Background(), []config.CountrySource{{Code: "SK", URL: srv.URL + "/SK.zip"}})
	require.NoError(t, err)

	// "811 01" and "81101" normalize to the same code; first occurrence wins.
	require.Len(t, refs, 3)
	assert.Equal(t, "81101", refs[0].PostalCode)
	assert.Equal(t, "Bratislava", refs[0].PlaceName)
	assert.Equal(t, "SK", refs[0].CountryCode)

	// Short codes are zero-padded to 5.
	assert.Equal(t, "00040", refs[1].PostalCode)

	// Empty place defaults to the sentinel.
	assert.Equal(t, model.UnknownPlace, refs[2].PlaceName)
	assert.Equal(t, "04001", refs[2].PostalCode)
}

func TestLoadUnionPreservesCountryOrder(t *testing.T) {
	sk := "zipcode,place,latitude,longitude\n81101,Bratislava,48.14,17.10\n"
	cz := "zipcode,place,latitude,longitude\n81101,Praha-ish,50.08,14.43\n"
	srv := serveArchives(t, map[string][]byte{
		"/SK.zip": zipWithCSV(t, "SK.csv", sk),
		"/CZ.zip": zipWithCSV(t, "CZ.csv", cz),
	})

	l := NewLoader(fetcher.HTTPOptions{})
	refs, err := l.Load(context.Background(), []config.CountrySource{
		{Code: "SK", URL: srv.URL + "/SK.zip"},
		{Code: "CZ", URL: srv.URL + "/CZ.zip"},
	})
	require.NoError(t, err)

	// Same postal code in two countries: both rows survive, in source order,
	// and the index keys on (postal_code, country_code).
	require.Len(t, refs, 2)
	assert.Equal(t, "SK", refs[0].CountryCode)
	assert.Equal(t, "CZ", refs[1].CountryCode)

	idx := Index(refs)
	assert.Equal(t, "Bratislava", idx[Key{"81101", "SK"}].PlaceName)
	assert.Equal(t, "Praha-ish", idx[Key{"81101", "CZ"}].PlaceName)
}

func TestLoadNoCSVInArchive(t *testing.T) {
	srv := serveArchives(t, map[string][]byte{"/HU.zip": zipWithCSV(t, "readme.txt", "no csv here")})

	l := NewLoader(fetcher.HTTPOptions{})
	_, err := l.Load(context.Background(), []config.CountrySource{{Code: "HU", URL: srv.URL + "/HU.zip"}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrDataNotFound))
}

func TestLoadBadLatitude(t *testing.T) {
	csv := "zipcode,place,latitude,longitude\n81101,Bratislava,not-a-number,17.10\n"
	srv := serveArchives(t, map[string][]byte{"/SK.zip": zipWithCSV(t, "SK.csv", csv)})

	l := NewLoader(fetcher.HTTPOptions{})
	_, err := l.Load(context.Background(), []config.CountrySource{{Code: "SK", URL: srv.URL + "/SK.zip"}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrTypeConversion))
}

func TestLoadMissingColumn(t *testing.T) {
	csv := "zipcode,latitude,longitude\n81101,48.14,17.10\n"
	srv := serveArchives(t, map[string][]byte{"/SK.zip": zipWithCSV(t, "SK.csv", csv)})

	l := NewLoader(fetcher.HTTPOptions{})
	_, err := l.Load(context.Background(), []config.CountrySource{{Code: "SK", URL: srv.URL + "/SK.zip"}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrSchemaMismatch))
}

func TestLoadFetchFailureAbortsRun(t *testing.T) {
	srv := serveArchives(t, map[string][]byte{})

	l := NewLoader(fetcher.HTTPOptions{MaxRetries: 1})
	_, err := l.Load(context.Background(), []config.CountrySource{{Code: "SK", URL: srv.URL + "/missing.zip"}})
	assert.Error(t, err)
}

func TestNormalizePostalCode(t *testing.T) {
	assert.Equal(t, "81101", NormalizePostalCode("811 01"))
	assert.Equal(t, "00042", NormalizePostalCode("42"))
	assert.Equal(t, "123456", NormalizePostalCode("123456"))
	assert.Equal(t, "00000", NormalizePostalCode(""))
}
