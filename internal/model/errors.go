package model

import "github.com/rotisserie/eris"

// Sentinel error kinds for the pipeline. Stages wrap these with stage, column,
// and row context; callers match with eris.Is.
var (
	// ErrDataNotFound indicates an expected file or archive entry is absent,
	// e.g. a reference ZIP with no CSV inside.
	ErrDataNotFound = eris.New("data not found")

	// ErrTypeConversion indicates a non-numeric value in a numeric column.
	ErrTypeConversion = eris.New("type conversion failed")

	// ErrDateParse indicates a timestamp that does not match the expected
	// format.
	ErrDateParse = eris.New("date parse failed")

	// ErrSchemaMismatch indicates a required column is missing from an input
	// table after header normalization.
	ErrSchemaMismatch = eris.New("schema mismatch")
)
