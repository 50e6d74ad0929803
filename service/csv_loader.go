package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// CSVLoader yields one unit per data row, rendered as "header: value"
// pairs joined with " | ". Empty cells are skipped.
type CSVLoader struct{}

func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

func (l *CSVLoader) Load(filePath string) ([]types.Unit, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var units []types.Unit
	unitNo := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		values := make([]string, 0, len(row))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" || i >= len(headers) {
				continue
			}
			values = append(values, fmt.Sprintf("%s: %s", strings.TrimSpace(headers[i]), cell))
		}
		if len(values) == 0 {
			continue
		}

		units = append(units, types.Unit{No: unitNo, Text: strings.Join(values, " | ")})
		unitNo++
	}

	return units, nil
}
