package utils

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"diagram-hub/internal/schemas"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoFileUploaded      = schemas.NewBadRequest("No file uploaded.")
	ErrUnsupportedFileType = schemas.NewBadRequest("Unsupported file type.")
)

// ParseImportFile reads an uploaded CSV or XLSX file into rows keyed by the header row.
func ParseImportFile(header *multipart.FileHeader) ([]map[string]string, error) {
	if header == nil {
		return nil, ErrNoFileUploaded
	}

	file, err := header.Open()
	if err != nil {
		return nil, schemas.NewBadRequest("Could not read uploaded file.").WithCause(err)
	}
	defer file.Close()

	return ParseImportReader(header.Filename, file)
}

// ParseImportReader parses r according to the extension of filename.
func ParseImportReader(filename string, r io.Reader) ([]map[string]string, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err = reader.ReadAll()
	case ".xlsx":
		rows, err = readFirstSheet(r)
	default:
		return nil, ErrUnsupportedFileType
	}
	if err != nil {
		return nil, schemas.NewBadRequest("Could not parse uploaded file.").WithCause(err)
	}

	return rowsToRecords(rows), nil
}

func readFirstSheet(r io.Reader) ([][]string, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return workbook.GetRows(sheets[0])
}

func rowsToRecords(rows [][]string) []map[string]string {
	if len(rows) < 2 {
		return []map[string]string{}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if cell != "" {
				empty = false
			}
			record[header] = cell
		}
		if !empty {
			records = append(records, record)
		}
	}
	return records
}
