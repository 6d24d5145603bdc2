package fetcher

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sales-etl/internal/model"
)

// ExtractCSV returns the contents of the first CSV entry in a ZIP archive.
// Directories and non-CSV entries are skipped. Returns model.ErrDataNotFound
// (wrapped) if the archive contains no CSV.
func ExtractCSV(zipData []byte) (name string, data []byte, err error) {
	r, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return "", nil, eris.Wrap(err, "zip: open archive")
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", nil, eris.Wrapf(err, "zip: open entry %s", f.Name)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", nil, eris.Wrapf(err, "zip: read entry %s", f.Name)
		}
		return f.Name, data, nil
	}

	return "", nil, eris.Wrap(model.ErrDataNotFound, "zip: no CSV entry in archive")
}
