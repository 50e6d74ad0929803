package service

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// DOCXLoader yields one unit per non-empty paragraph of word/document.xml.
type DOCXLoader struct{}

func NewDOCXLoader() *DOCXLoader {
	return &DOCXLoader{}
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func (l *DOCXLoader) Load(filePath string) ([]types.Unit, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening docx archive: %w", err)
	}
	defer reader.Close()

	var content []byte
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening word/document.xml: %w", err)
		}
		content, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading word/document.xml: %w", err)
		}
		break
	}
	if content == nil {
		return nil, fmt.Errorf("docx has no word/document.xml")
	}

	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing word/document.xml: %w", err)
	}

	var units []types.Unit
	unitNo := 1
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				sb.WriteString(t.Content)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		units = append(units, types.Unit{No: unitNo, Text: text})
		unitNo++
	}

	return units, nil
}
