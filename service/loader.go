package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// Loader extracts ordered (unit, text) pairs from one file: a page per
// unit for PDFs, a paragraph for txt/docx, a row for csv/xlsx, a
// recognized line for images. Loaders never chunk, normalize or embed.
//
// Load materializes every unit before the document row is committed, so
// a parse failure leaves no metadata behind. The extracted text of the
// whole file is held in memory for the duration of one ingest.
type Loader interface {
	Load(filePath string) ([]types.Unit, error)
}

// LoaderRegistry maps a lowercase extension (no dot) to its loader.
type LoaderRegistry struct {
	loaders map[string]Loader
}

// NewLoaderRegistry returns a registry with the full supported set:
// pdf, txt, csv, docx, xlsx, xls, jpg, jpeg, png.
func NewLoaderRegistry() *LoaderRegistry {
	pdf := NewPDFLoader()
	excel := NewExcelLoader()
	ocr := NewImageOCRLoader()
	return &LoaderRegistry{
		loaders: map[string]Loader{
			"pdf":  pdf,
			"txt":  NewTXTLoader(),
			"csv":  NewCSVLoader(),
			"docx": NewDOCXLoader(),
			"xlsx": excel,
			"xls":  excel,
			"jpg":  ocr,
			"jpeg": ocr,
			"png":  ocr,
		},
	}
}

// Get returns the loader for an extension, or types.ErrUnsupportedType.
func (r *LoaderRegistry) Get(ext string) (Loader, error) {
	loader, ok := r.loaders[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedType, ext)
	}
	return loader, nil
}

// Supported reports whether the file's extension has a registered loader.
func (r *LoaderRegistry) Supported(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := r.loaders[ext]
	return ok
}
