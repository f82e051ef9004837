// Package parquetio reads and writes the pipeline's tables as Parquet files.
//
// Files carry only the columns a table physically has, so the schema is built
// per call from the column list rather than from a fixed struct. Rows cross
// between the typed domain records and the generated parquet structs through
// their shared json tags.
package parquetio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
)

type columnSpec struct {
	goType reflect.Type
	tag    string
}

var (
	optString  = reflect.TypeOf((*string)(nil))
	optFloat64 = reflect.TypeOf((*float64)(nil))
	optInt64   = reflect.TypeOf((*int64)(nil))
)

const (
	utf8Tag   = "type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"
	doubleTag = "type=DOUBLE, repetitiontype=OPTIONAL"
	int64Tag  = "type=INT64, repetitiontype=OPTIONAL"
)

var columnSpecs = map[string]columnSpec{
	domain.ColTransactionID:   {optString, utf8Tag},
	domain.ColDate:            {optString, utf8Tag},
	domain.ColProductID:       {optString, utf8Tag},
	domain.ColPrice:           {optFloat64, doubleTag},
	domain.ColQuantity:        {optInt64, int64Tag},
	domain.ColCustomerID:      {optString, utf8Tag},
	domain.ColProductName:     {optString, utf8Tag},
	domain.ColCustomerCountry: {optString, utf8Tag},
	domain.ColCustomerName:    {optString, utf8Tag},
	domain.ColTotalAmount:     {optFloat64, doubleTag},
	domain.ColJoinDate:        {optString, utf8Tag},
	domain.ColGBPTHB:          {optFloat64, doubleTag},
	domain.ColTHBAmount:       {optFloat64, doubleTag},
}

// rowType builds the parquet row struct for the given columns, in order.
func rowType(columns []string) (reflect.Type, error) {
	fields := make([]reflect.StructField, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		spec, ok := columnSpecs[col]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", col)
		}
		if seen[col] {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		seen[col] = true
		fields = append(fields, reflect.StructField{
			Name: goName(col),
			Type: spec.goType,
			Tag:  reflect.StructTag(fmt.Sprintf(`parquet:"name=%s, %s" json:"%s"`, col, spec.tag, col)),
		})
	}
	return reflect.StructOf(fields), nil
}

// goName turns "customer_country" into "CustomerCountry".
func goName(col string) string {
	var b strings.Builder
	for _, part := range strings.Split(col, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// writeTable writes rows to path, truncating any existing file.
// Only the listed columns are stored.
func writeTable[T any](path string, columns []string, rows []T) error {
	typ, err := rowType(columns)
	if err != nil {
		return fmt.Errorf("writeTable %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writeTable: create directory: %w", err)
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("writeTable: create %s: %w", path, err)
	}

	// np=1 keeps page layout, and therefore the file bytes, deterministic.
	pw, err := writer.NewParquetWriter(fw, reflect.New(typ).Interface(), 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("writeTable: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		rec, err := toParquetRow(typ, rows[i])
		if err != nil {
			_ = pw.WriteStop()
			fw.Close()
			return fmt.Errorf("writeTable: row %d: %w", i, err)
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			fw.Close()
			return fmt.Errorf("writeTable: parquet write: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("writeTable: parquet flush: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("writeTable: close %s: %w", path, err)
	}
	return nil
}

func toParquetRow(typ reflect.Type, v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(typ)
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

// readTable reads every row of path along with the columns the file has.
func readTable[T any](path string) ([]string, []T, error) {
	columns, err := ReadColumns(path)
	if err != nil {
		return nil, nil, err
	}
	typ, err := rowType(columns)
	if err != nil {
		return nil, nil, fmt.Errorf("readTable %s: %w", path, err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("readTable: open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, reflect.New(typ).Interface(), 1)
	if err != nil {
		return nil, nil, fmt.Errorf("readTable: parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]T, 0, num)
	if num == 0 {
		return columns, rows, nil
	}

	dst := reflect.New(reflect.SliceOf(typ))
	dst.Elem().Set(reflect.MakeSlice(reflect.SliceOf(typ), num, num))
	if err := pr.Read(dst.Interface()); err != nil {
		return nil, nil, fmt.Errorf("readTable: parquet read: %w", err)
	}

	b, err := json.Marshal(dst.Elem().Interface())
	if err != nil {
		return nil, nil, fmt.Errorf("readTable: encode rows: %w", err)
	}
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, nil, fmt.Errorf("readTable: decode rows: %w", err)
	}
	return columns, rows, nil
}

// ReadColumns returns the column names stored in a parquet file, in file order.
func ReadColumns(path string) ([]string, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("ReadColumns: open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("ReadColumns: parquet reader: %w", err)
	}
	defer pr.ReadStop()

	// Infos[0] is the root group; the tables are flat. ExName is the name as
	// stored in the file, before the reader maps it to a Go field name.
	infos := pr.SchemaHandler.Infos
	columns := make([]string, 0, len(infos))
	for _, info := range infos[1:] {
		columns = append(columns, info.ExName)
	}
	return columns, nil
}
