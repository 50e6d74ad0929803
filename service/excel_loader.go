package service

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tieubaoca/docflow/types"
)

// ExcelLoader yields one unit per data row across all sheets of an OOXML
// workbook, rendered as "[Sheet:name] header: value | ...". The first row
// of each sheet is taken as the header row. Legacy binary .xls files that
// are not OOXML fail at parse time, which is a permanent per-file error.
type ExcelLoader struct{}

func NewExcelLoader() *ExcelLoader {
	return &ExcelLoader{}
}

type xlsxSharedStrings struct {
	Items []struct {
		T string   `xml:"t"`
		R []xlsxRT `xml:"r"`
	} `xml:"si"`
}

type xlsxRT struct {
	T string `xml:"t"`
}

type xlsxWorkbook struct {
	Sheets struct {
		Sheet []struct {
			Name    string `xml:"name,attr"`
			SheetID string `xml:"sheetId,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type xlsxWorksheet struct {
	SheetData struct {
		Rows []xlsxRow `xml:"row"`
	} `xml:"sheetData"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Ref  string `xml:"r,attr"`
	Type string `xml:"t,attr"`
	V    string `xml:"v"`
	IS   struct {
		T string `xml:"t"`
	} `xml:"is"`
}

func (l *ExcelLoader) Load(filePath string) ([]types.Unit, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening workbook archive: %w", err)
	}
	defer reader.Close()

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}

	shared, err := loadSharedStrings(files["xl/sharedStrings.xml"])
	if err != nil {
		return nil, err
	}

	sheetNames, err := loadSheetNames(files["xl/workbook.xml"])
	if err != nil {
		return nil, err
	}

	var units []types.Unit
	unitNo := 1

	for i, sheetName := range sheetNames {
		sheetFile := files[fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)]
		if sheetFile == nil {
			continue
		}
		rows, err := loadSheetRows(sheetFile, shared)
		if err != nil {
			return nil, fmt.Errorf("parsing sheet %s: %w", sheetName, err)
		}
		if len(rows) == 0 {
			continue
		}

		headers := rows[0]
		for _, row := range rows[1:] {
			values := make([]string, 0, len(row))
			for col, val := range row {
				val = strings.TrimSpace(val)
				if val == "" {
					continue
				}
				header := ""
				if col < len(headers) {
					header = strings.TrimSpace(headers[col])
				}
				if header == "" {
					header = fmt.Sprintf("col%d", col+1)
				}
				values = append(values, fmt.Sprintf("%s: %s", header, val))
			}
			if len(values) == 0 {
				continue
			}
			units = append(units, types.Unit{
				No:   unitNo,
				Text: fmt.Sprintf("[Sheet:%s] %s", sheetName, strings.Join(values, " | ")),
			})
			unitNo++
		}
	}

	return units, nil
}

func loadSharedStrings(f *zip.File) ([]string, error) {
	if f == nil {
		return nil, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	var sst xlsxSharedStrings
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("parsing sharedStrings.xml: %w", err)
	}
	strs := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if item.T != "" {
			strs[i] = item.T
			continue
		}
		var sb strings.Builder
		for _, r := range item.R {
			sb.WriteString(r.T)
		}
		strs[i] = sb.String()
	}
	return strs, nil
}

func loadSheetNames(f *zip.File) ([]string, error) {
	if f == nil {
		return nil, fmt.Errorf("workbook has no xl/workbook.xml")
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	var wb xlsxWorkbook
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("parsing workbook.xml: %w", err)
	}
	names := make([]string, 0, len(wb.Sheets.Sheet))
	for _, s := range wb.Sheets.Sheet {
		names = append(names, s.Name)
	}
	return names, nil
}

func loadSheetRows(f *zip.File, shared []string) ([][]string, error) {
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	var ws xlsxWorksheet
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(ws.SheetData.Rows))
	for _, row := range ws.SheetData.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			col := columnIndex(cell.Ref)
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = cellValue(cell, shared)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func cellValue(cell xlsxCell, shared []string) string {
	switch cell.Type {
	case "s":
		idx, err := strconv.Atoi(cell.V)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return cell.IS.T
	default:
		return cell.V
	}
}

// columnIndex converts the letter part of a cell reference like "BC12" to
// a zero-based column index.
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
	}
	if col == 0 {
		return 0
	}
	return col - 1
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
