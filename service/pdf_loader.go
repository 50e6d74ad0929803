package service

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// PDFLoader yields one unit per page. Text extraction uses pdftotext and
// falls back to tesseract OCR (via pdftoppm) on pages where pdftotext
// gets nothing, so scanned documents still produce text.
type PDFLoader struct {
	ocrLanguages string
}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{ocrLanguages: "kor+eng"}
}

func (l *PDFLoader) Load(filePath string) ([]types.Unit, error) {
	totalPages, err := pdfPageCount(filePath)
	if err != nil {
		return nil, err
	}

	var units []types.Unit
	for pageNo := 1; pageNo <= totalPages; pageNo++ {
		text, err := l.extractPage(filePath, pageNo)
		if err != nil {
			log.Printf("[PDF] failed to extract text from page %d of %s: %v", pageNo, filePath, err)
			continue
		}
		text = strings.ReplaceAll(text, " ", " ")
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, types.Unit{No: pageNo, Text: text})
	}

	return units, nil
}

func (l *PDFLoader) extractPage(filePath string, pageNo int) (string, error) {
	text, err := extractPageWithPdftotext(filePath, pageNo)
	if err != nil || text == "" {
		text, err = l.extractPageWithTesseract(filePath, pageNo)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
	}
	return text, nil
}

func extractPageWithPdftotext(filePath string, pageNo int) (string, error) {
	cmd := exec.Command("pdftotext",
		"-f", strconv.Itoa(pageNo),
		"-l", strconv.Itoa(pageNo),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w", pageNo, err)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("pdftotext got nothing at page %d", pageNo)
	}
	return text, nil
}

func (l *PDFLoader) extractPageWithTesseract(pdfPath string, pageNo int) (string, error) {
	tempDir, err := os.MkdirTemp("", "docflow-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	convertCmd := exec.Command("pdftoppm",
		"-f", strconv.Itoa(pageNo),
		"-l", strconv.Itoa(pageNo),
		"-png", pdfPath, filepath.Join(tempDir, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("converting page %d to image: %w", pageNo, err)
	}

	images, err := filepath.Glob(filepath.Join(tempDir, "page-*.png"))
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("no page image produced for page %d", pageNo)
	}

	return runTesseract(images[0], l.ocrLanguages)
}

func runTesseract(imagePath, languages string) (string, error) {
	cmd := exec.Command("tesseract",
		imagePath,
		"stdout",
		"-l", languages,
		"--oem", "3",
		"--psm", "3",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("tesseract got nothing from %s", imagePath)
	}
	return text, nil
}

var pdfPagesRe = regexp.MustCompile(`Pages:\s+(\d+)`)

func pdfPageCount(pdfPath string) (int, error) {
	cmd := exec.Command("pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("running pdfinfo: %w", err)
	}

	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if matches := pdfPagesRe.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}
