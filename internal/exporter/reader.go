package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"transitcli/pkg/contracts/domain"
)

// ReadCSV loads a file written by WriteDataset. A leading UTF-8 BOM is
// dropped. Every non-empty field is read back as a string and empty fields
// become Null, so the distinction between a number and its text is lost.
func ReadCSV(path string) (*domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return DecodeCSV(file)
}

// DecodeCSV reads CSV data with an optional BOM from r.
func DecodeCSV(r io.Reader) (*domain.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)

	header, err := reader.Read()
	if err == io.EOF {
		return domain.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := domain.NewTable(header...)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row := make(domain.Row, len(record))
		for i, field := range record {
			if field != "" {
				row[header[i]] = domain.StringValue(field)
			}
		}
		table.Append(row)
	}

	return table, nil
}
