package service

import (
	"bufio"
	"os"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// TXTLoader yields one unit per paragraph, split on blank lines.
type TXTLoader struct{}

func NewTXTLoader() *TXTLoader {
	return &TXTLoader{}
}

func (l *TXTLoader) Load(filePath string) ([]types.Unit, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []types.Unit
	var buffer []string
	unitNo := 1

	flush := func() {
		if len(buffer) > 0 {
			units = append(units, types.Unit{No: unitNo, Text: strings.Join(buffer, " ")})
			buffer = buffer[:0]
			unitNo++
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			buffer = append(buffer, line)
		} else {
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	// Trailing paragraph without a closing blank line.
	flush()

	return units, nil
}
