package csvutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNoHeader = errors.New("csv has no header row")
)

// Row is one parsed CSV record keyed by normalized header.
// Values are float64 when the cell parses entirely as a number,
// string otherwise. Empty cells are omitted.
type Row map[string]interface{}

// Parse reads a CSV document into header-normalized rows.
// Headers are trimmed and lower-cased. Rows whose cells are all
// empty are skipped. The returned field list preserves header order.
func Parse(b []byte) ([]Row, []string, error) {
	reader := csv.NewReader(bytes.NewReader(b))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) == 0 {
		return nil, nil, ErrNoHeader
	}

	fields := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		fields = append(fields, strings.ToLower(strings.TrimSpace(h)))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row)
		for i, cell := range record {
			if i >= len(fields) {
				break
			}

			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			row[fields[i]] = inferType(cell)
		}

		if len(row) == 0 {
			continue
		}

		rows = append(rows, row)
	}

	return rows, fields, nil
}

func inferType(cell string) interface{} {
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
