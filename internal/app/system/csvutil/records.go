// internal/app/system/csvutil/records.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Limits for a single lead sheet upload.
const (
	MaxUploadSize = 5 << 20
	MaxRows       = 5000
)

var (
	// ErrTooManyRows is returned when a file has more data rows than allowed.
	ErrTooManyRows = fmt.Errorf("file has more than %d rows", MaxRows)
	// ErrUnsupportedFormat is returned for anything but .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file type; upload a .csv or .xlsx file")
)

// Format is the spreadsheet container of an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the upload's file name.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ReadRecords returns every row of the upload, header included, with cells
// trimmed and a leading BOM removed. Completely blank rows are dropped.
// maxRows counts data rows (the header is not counted); 0 means MaxRows.
func ReadRecords(r io.Reader, format Format, maxRows int) ([][]string, error) {
	if maxRows <= 0 {
		maxRows = MaxRows
	}
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r, maxRows)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, rec := range rows {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if blank(rec) {
			continue
		}
		out = append(out, rec)
	}
	if len(out) > 0 && len(out[0]) > 0 {
		out[0][0] = strings.TrimPrefix(out[0][0], "\ufeff")
	}
	if len(out) > maxRows+1 {
		return nil, ErrTooManyRows
	}
	return out, nil
}

func readCSV(r io.Reader, maxRows int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.TrimLeadingSpace = true

	var rows [][]string
	line := 0
	for {
		rec, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		// header plus maxRows data rows, plus slack for blank lines
		if len(rows) > 2*maxRows+1 {
			return nil, ErrTooManyRows
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
