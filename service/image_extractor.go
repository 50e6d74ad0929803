package service

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// zipMediaPaths maps OOXML container extensions to their media directory.
var zipMediaPaths = map[string]string{
	".docx": "word/media/",
	".xlsx": "xl/media/",
	".pptx": "ppt/media/",
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// ImageExtractor copies images embedded in (or constituting) a source file
// into a per-document directory. It is best-effort relative to text
// ingestion: callers log a warning on failure and keep going.
type ImageExtractor struct{}

func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{}
}

// Extract writes the images of filePath into outDir and returns one Image
// record per stored file (DocID left for the caller to fill in). File
// types with no image support return an empty result, which is normal.
func (e *ImageExtractor) Extract(filePath, outDir string) ([]types.Image, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch {
	case imageExts[ext]:
		return e.extractSingleImage(filePath, outDir)
	case zipMediaPaths[ext] != "":
		return e.extractFromZip(filePath, outDir, zipMediaPaths[ext])
	default:
		return nil, nil
	}
}

func (e *ImageExtractor) extractSingleImage(filePath, outDir string) ([]types.Image, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	name := filepath.Base(filePath)
	dest := filepath.Join(outDir, name)
	if err := copyFile(filePath, dest); err != nil {
		return nil, fmt.Errorf("copying image: %w", err)
	}

	return []types.Image{{
		ImageNo:   1,
		ImagePath: dest,
		ImageName: name,
		ImageExt:  strings.TrimPrefix(filepath.Ext(name), "."),
	}}, nil
}

func (e *ImageExtractor) extractFromZip(filePath, outDir, prefix string) ([]types.Image, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	defer reader.Close()

	var images []types.Image
	imageNo := 1
	for _, file := range reader.File {
		if !strings.HasPrefix(file.Name, prefix) {
			continue
		}
		name := filepath.Base(file.Name)
		if name == "" || name == "." {
			continue
		}

		if len(images) == 0 {
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return nil, err
			}
		}

		dest := filepath.Join(outDir, name)
		if err := writeZipEntry(file, dest); err != nil {
			return images, fmt.Errorf("extracting %s: %w", name, err)
		}

		images = append(images, types.Image{
			ImageNo:   imageNo,
			ImagePath: dest,
			ImageName: name,
			ImageExt:  strings.TrimPrefix(filepath.Ext(name), "."),
		})
		imageNo++
	}

	return images, nil
}

func writeZipEntry(file *zip.File, dest string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
