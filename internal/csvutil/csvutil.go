package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// MaxUploadSize bounds CSV uploads; the import fixtures are small
const MaxUploadSize = 8 << 20

// FormFile extracts the uploaded CSV from a multipart request
func FormFile(r *http.Request) (multipart.File, error) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		return nil, errors.New("invalid multipart request")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("a CSV file upload is required in the 'file' field")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		file.Close()
		return nil, errors.New("invalid file: a .csv file is expected")
	}
	return file, nil
}

// Result reports the outcome of a bulk CSV import
type Result struct {
	Added   int      `json:"recordsAdded"`
	Skipped int      `json:"duplicatesSkipped"`
	Errors  []string `json:"errors"`
}

// Row is one data row keyed by header name; Line is 1-based including
// the header, matching what a user sees in a spreadsheet.
type Row struct {
	Line   int
	fields map[string]string
}

func (r Row) Get(column string) string {
	return strings.TrimSpace(r.fields[column])
}

// HeaderError signals a missing or malformed header row
type HeaderError struct {
	Expected []string
}

func (e *HeaderError) Error() string {
	return "CSV header is missing required columns: " + strings.Join(e.Expected, ", ")
}

// Read parses the file and verifies that all required columns are
// present. BOM prefixes from spreadsheet exports are stripped.
func Read(file io.Reader, required []string) ([]Row, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &HeaderError{Expected: required}
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimPrefix(col, "\ufeff")
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, &HeaderError{Expected: required}
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: malformed CSV: %w", line, err)
		}

		fields := make(map[string]string, len(index))
		for col, i := range index {
			if i < len(record) {
				fields[col] = record[i]
			}
		}
		rows = append(rows, Row{Line: line, fields: fields})
	}

	return rows, nil
}
