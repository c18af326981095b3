package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

const parquetBatchSize = 256

// ReadParquetFile reads a flat parquet file. Nested columns are rejected.
func ReadParquetFile(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return Table{}, fmt.Errorf("stat parquet file: %w", err)
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return Table{}, fmt.Errorf("open parquet: %w", err)
	}

	fields := pf.Schema().Fields()
	columns := make([]string, len(fields))
	for i, field := range fields {
		if !field.Leaf() {
			return Table{}, fmt.Errorf("nested parquet column %q is not supported", field.Name())
		}
		columns[i] = field.Name()
	}
	if err := validateColumns(columns); err != nil {
		return Table{}, err
	}

	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()

	rows := make([][]any, 0, pf.NumRows())
	buffer := make([]parquet.Row, parquetBatchSize)
	for {
		n, err := reader.ReadRows(buffer)
		for _, raw := range buffer[:n] {
			row := make([]any, len(columns))
			for _, value := range raw {
				index := value.Column()
				if index < 0 || index >= len(row) {
					continue
				}
				row[index] = parquetValue(value)
			}
			rows = append(rows, row)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return newTable(columns, rows), nil
}

func parquetValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case parquet.Boolean:
		if value.Boolean() {
			return int64(1)
		}
		return int64(0)
	case parquet.Int32:
		return int64(value.Int32())
	case parquet.Int64:
		return value.Int64()
	case parquet.Float:
		return float64(value.Float())
	case parquet.Double:
		return value.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(value.ByteArray())
	default:
		return value.String()
	}
}
