package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"censuswage/internal/dataset"
	"censuswage/internal/store"
)

// explain adds a hint for the error kinds a user can act on.
func explain(err error) string {
	msg := err.Error()

	var (
		srcErr    *dataset.DataSourceError
		schemaErr *dataset.SchemaError
		encErr    *dataset.EncodingError
		rangeErr  *dataset.RangeError
	)
	switch {
	case errors.As(err, &srcErr):
		if errors.Is(err, os.ErrNotExist) {
			return msg + "\n  hint: check the dataset path"
		}
		return msg + "\n  hint: supported formats are .csv, .csv.gz, .parquet and .arrow"
	case errors.As(err, &schemaErr):
		return fmt.Sprintf("%s\n  hint: map %q to one of [%s] under data.columns in the config",
			msg, schemaErr.Column, strings.Join(schemaErr.Available, ", "))
	case errors.As(err, &encErr):
		return fmt.Sprintf("%s\n  hint: data row %d has %s = %v; valid education codes are 0 to 116",
			msg, encErr.Row, encErr.Column, encErr.Value)
	case errors.As(err, &rangeErr):
		return fmt.Sprintf("%s\n  hint: subsample divisors must be at least 1", msg)
	case errors.Is(err, store.ErrNotFound):
		return msg + "\n  hint: list recorded runs with `censuswage history`"
	case errors.Is(err, context.DeadlineExceeded):
		return msg + "\n  hint: raise --timeout or analysis.timeout"
	}
	return msg
}
