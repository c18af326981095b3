package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ReadCSV reads a headered CSV file. Empty cells become nulls; numeric cells
// become int64 or float64.
func ReadCSV(r io.Reader) (Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, fmt.Errorf("csv is empty")
		}
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = norm.NFC.String(strings.TrimSpace(name))
	}
	if err := validateColumns(columns); err != nil {
		return Table{}, err
	}

	rows := make([][]any, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = parseCell(cell)
		}
		rows = append(rows, row)
	}
	return newTable(columns, rows), nil
}

func parseCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if value, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return value
	}
	if value, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return value
	}
	return cell
}
