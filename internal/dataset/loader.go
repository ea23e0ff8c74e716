package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"censuswage/internal/logging"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Format is an on-disk dataset encoding the loader understands.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatArrow   Format = "arrow"
	FormatCSV     Format = "csv"
)

// csvMissing are the cell spellings read as missing in delimited files.
// "." is how statistical packages export a system missing value.
var csvMissing = []string{"", "NA", "NaN", ".", "<nil>"}

// DetectFormat picks a format from the file extension. A trailing .gz is
// accepted for CSV only.
func DetectFormat(path string) (format Format, gzipped bool, err error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".gz") {
		gzipped = true
		name = strings.TrimSuffix(name, ".gz")
	}
	switch filepath.Ext(name) {
	case ".parquet", ".pq":
		format = FormatParquet
	case ".arrow", ".feather", ".ipc":
		format = FormatArrow
	case ".csv":
		format = FormatCSV
	default:
		return "", false, fmt.Errorf("unsupported file extension %q", filepath.Ext(name))
	}
	if gzipped && format != FormatCSV {
		return "", false, fmt.Errorf("gzip is only supported for csv, got %s", format)
	}
	return format, gzipped, nil
}

// Load reads the whole dataset at path into a table, keeping every row and
// every column. Any failure is a *DataSourceError.
func Load(ctx context.Context, path string) (dataframe.DataFrame, error) {
	timer := logging.StartTimer(logging.CategoryLoad, "Load")
	defer timer.Stop()

	format, gzipped, err := DetectFormat(path)
	if err != nil {
		return dataframe.DataFrame{}, &DataSourceError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, &DataSourceError{Path: path, Err: err}
	}
	defer f.Close()

	logging.Load("Loading %s dataset from %s", format, path)

	var df dataframe.DataFrame
	switch format {
	case FormatParquet:
		df, err = readParquet(ctx, f)
	case FormatArrow:
		df, err = readArrowIPC(f)
	case FormatCSV:
		var r io.Reader = f
		if gzipped {
			gz, gzErr := gzip.NewReader(f)
			if gzErr != nil {
				return dataframe.DataFrame{}, &DataSourceError{Path: path, Err: gzErr}
			}
			defer gz.Close()
			r = gz
		}
		df, err = readCSV(r)
	}
	if err != nil {
		logging.Get(logging.CategoryLoad).Error("Failed to read %s: %v", path, err)
		return dataframe.DataFrame{}, &DataSourceError{Path: path, Err: err}
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, newDataSourceError(path, "dataset has no rows")
	}

	logging.Load("Loaded %d rows x %d columns from %s", df.Nrow(), df.Ncol(), path)
	return df, nil
}

func readCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(csvMissing),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

func readParquet(ctx context.Context, r parquet.ReaderAtSeeker) (dataframe.DataFrame, error) {
	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()
	return fromArrowTable(tbl)
}

func readArrowIPC(r ipc.ReadAtSeeker) (dataframe.DataFrame, error) {
	mem := memory.NewGoAllocator()
	rdr, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read arrow file: %w", err)
	}
	defer rdr.Close()

	recs := make([]arrow.Record, 0, rdr.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < rdr.NumRecords(); i++ {
		rec, err := rdr.RecordAt(i)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("read arrow record %d: %w", i, err)
		}
		recs = append(recs, rec)
	}

	tbl := array.NewTableFromRecords(rdr.Schema(), recs)
	defer tbl.Release()
	return fromArrowTable(tbl)
}

// fromArrowTable converts each Arrow column into a gota series. Integer
// columns become Int, floating columns Float, text columns String. Nulls
// become missing cells.
func fromArrowTable(tbl arrow.Table) (dataframe.DataFrame, error) {
	if tbl.NumCols() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("dataset has no columns")
	}
	cols := make([]series.Series, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		s, err := arrowColumn(col)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		cols = append(cols, s)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

func arrowColumn(col *arrow.Column) (series.Series, error) {
	n := col.Len()
	switch kind := columnKind(col.DataType()); kind {
	case series.Int, series.Float:
		vals := make([]float64, 0, n)
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				v, err := numericCell(chunk, i)
				if err != nil {
					return series.Series{}, err
				}
				vals = append(vals, v)
			}
		}
		return series.New(vals, kind, col.Name()), nil
	case series.String, series.Bool:
		vals := make([]string, 0, n)
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				if chunk.IsNull(i) {
					vals = append(vals, naCell)
					continue
				}
				vals = append(vals, chunk.ValueStr(i))
			}
		}
		return series.New(vals, kind, col.Name()), nil
	default:
		return series.Series{}, fmt.Errorf("unsupported arrow type %s", col.DataType())
	}
}

func columnKind(dt arrow.DataType) series.Type {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return series.Int
	case arrow.FLOAT32, arrow.FLOAT64:
		return series.Float
	case arrow.STRING, arrow.LARGE_STRING:
		return series.String
	case arrow.BOOL:
		return series.Bool
	case arrow.DICTIONARY:
		return series.String
	default:
		return ""
	}
}

func numericCell(arr arrow.Array, i int) (float64, error) {
	if arr.IsNull(i) {
		return math.NaN(), nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return float64(a.Value(i)), nil
	case *array.Int16:
		return float64(a.Value(i)), nil
	case *array.Int32:
		return float64(a.Value(i)), nil
	case *array.Int64:
		return float64(a.Value(i)), nil
	case *array.Uint8:
		return float64(a.Value(i)), nil
	case *array.Uint16:
		return float64(a.Value(i)), nil
	case *array.Uint32:
		return float64(a.Value(i)), nil
	case *array.Uint64:
		return float64(a.Value(i)), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	default:
		return 0, fmt.Errorf("unsupported numeric array %T", arr)
	}
}
