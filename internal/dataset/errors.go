package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched through errors.Is by the CLI and by callers that only
// care about the failure class.
var (
	ErrDataSource = errors.New("data source error")
	ErrSchema     = errors.New("schema error")
	ErrEncoding   = errors.New("encoding error")
	ErrRange      = errors.New("range error")
)

// DataSourceError reports a dataset that is missing, unreadable or not in a
// supported format.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() []error { return []error{ErrDataSource, e.Err} }

// SchemaError reports a requested column that the table does not have.
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// EncodingError reports a code that falls outside every declared band.
type EncodingError struct {
	Row    int
	Column string
	Value  float64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("row %d: %s value %v is outside the codebook", e.Row, e.Column, e.Value)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// RangeError reports a subsample whose start index is not inside [0, N].
type RangeError struct {
	N       int
	Divisor float64
	Start   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("subsample of %d rows with divisor %v: start index %d out of range", e.N, e.Divisor, e.Start)
}

func (e *RangeError) Unwrap() error { return ErrRange }

func newDataSourceError(path string, format string, args ...interface{}) *DataSourceError {
	return &DataSourceError{Path: path, Err: fmt.Errorf(format, args...)}
}
