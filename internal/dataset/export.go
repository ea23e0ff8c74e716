package dataset

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"censuswage/internal/logging"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Write stores df at path in the format implied by its extension, the
// inverse of Load. Parquet output is zstd-compressed.
func Write(df dataframe.DataFrame, path string) error {
	if df.Err != nil {
		return fmt.Errorf("write: %w", df.Err)
	}
	format, gzipped, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	err = writeFile(path, func(w io.Writer) error {
		switch format {
		case FormatParquet:
			return writeParquet(df, w)
		case FormatArrow:
			return writeArrowIPC(df, w)
		}
		if !gzipped {
			return df.WriteCSV(w)
		}
		gz := gzip.NewWriter(w)
		if err := df.WriteCSV(gz); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	})
	if err != nil {
		return err
	}
	logging.Report("Wrote %d rows to %s", df.Nrow(), path)
	return nil
}

// writeFile creates path and fills it with write. A failed write removes
// the file rather than leave a truncated table behind.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write %s: %w", path, cerr)
		}
		if err != nil {
			if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
				logging.Get(logging.CategoryReport).Warn("Failed to remove partial %s: %v", path, rerr)
			}
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeParquet(df dataframe.DataFrame, w io.Writer) error {
	rec, err := toArrowRecord(df)
	if err != nil {
		return err
	}
	defer rec.Release()

	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Zstd))
	// pqarrow closes any io.WriteCloser it is handed; the caller owns w.
	return pqarrow.WriteTable(tbl, struct{ io.Writer }{w}, 64*1024, props, pqarrow.DefaultWriterProps())
}

func writeArrowIPC(df dataframe.DataFrame, w io.Writer) error {
	rec, err := toArrowRecord(df)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return err
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

// toArrowRecord maps gota Int to int64, Float to float64, Bool to bool and
// String to utf8, with missing cells as nulls.
func toArrowRecord(df dataframe.DataFrame) (arrow.Record, error) {
	names := df.Names()
	types := df.Types()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		var dt arrow.DataType
		switch types[i] {
		case series.Int:
			dt = arrow.PrimitiveTypes.Int64
		case series.Float:
			dt = arrow.PrimitiveTypes.Float64
		case series.Bool:
			dt = arrow.FixedWidthTypes.Boolean
		case series.String:
			dt = arrow.BinaryTypes.String
		default:
			return nil, fmt.Errorf("column %q: unsupported type %s", name, types[i])
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	for i, name := range names {
		col := df.Col(name)
		na := col.IsNaN()
		switch fb := b.Field(i).(type) {
		case *array.Int64Builder:
			for r, v := range col.Float() {
				if na[r] {
					fb.AppendNull()
				} else {
					fb.Append(int64(v))
				}
			}
		case *array.Float64Builder:
			for r, v := range col.Float() {
				if na[r] {
					fb.AppendNull()
				} else {
					fb.Append(v)
				}
			}
		case *array.BooleanBuilder:
			for r := range na {
				if na[r] {
					fb.AppendNull()
					continue
				}
				v, err := col.Elem(r).Bool()
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", name, r, err)
				}
				fb.Append(v)
			}
		case *array.StringBuilder:
			for r, v := range col.Records() {
				if na[r] {
					fb.AppendNull()
				} else {
					fb.Append(v)
				}
			}
		}
	}
	return b.NewRecord(), nil
}
