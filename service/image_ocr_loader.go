package service

import (
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// ImageOCRLoader runs tesseract over a single image and yields one unit
// per recognized non-empty line.
type ImageOCRLoader struct {
	languages string
}

func NewImageOCRLoader() *ImageOCRLoader {
	return &ImageOCRLoader{languages: "kor+eng"}
}

func (l *ImageOCRLoader) Load(filePath string) ([]types.Unit, error) {
	text, err := runTesseract(filePath, l.languages)
	if err != nil {
		return nil, err
	}

	var units []types.Unit
	unitNo := 1
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		units = append(units, types.Unit{No: unitNo, Text: line})
		unitNo++
	}
	return units, nil
}
