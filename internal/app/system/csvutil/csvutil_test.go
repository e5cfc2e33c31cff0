package csvutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"leads.csv", FormatCSV, false},
		{"LEADS.XLSX", FormatXLSX, false},
		{"leads.xls", "", true},
		{"leads", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, %v", tt.name, got, err)
		}
	}
}

func TestReadRecords_CSV(t *testing.T) {
	in := "\ufeffname,email,phone,source\n Asha Rao , asha@example.com ,98765 43210,fair\n,,,\n\nRavi,,+919812345678,\n"
	rows, err := ReadRecords(strings.NewReader(in), FormatCSV, 0)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (blank rows dropped): %v", len(rows), rows)
	}
	if rows[0][0] != "name" {
		t.Errorf("BOM not stripped: %q", rows[0][0])
	}
	if rows[1][0] != "Asha Rao" || rows[1][1] != "asha@example.com" {
		t.Errorf("cells not trimmed: %q", rows[1])
	}
}

func TestReadRecords_TooManyRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,email\n")
	for i := 0; i < 4; i++ {
		b.WriteString("x,x@example.com\n")
	}
	if _, err := ReadRecords(strings.NewReader(b.String()), FormatCSV, 3); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("expected ErrTooManyRows, got %v", err)
	}
	if _, err := ReadRecords(strings.NewReader(b.String()), FormatCSV, 4); err != nil {
		t.Errorf("4 data rows within limit, got %v", err)
	}
}

func TestReadRecords_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"Name", "Email", "Phone", "Source"},
		{"Asha Rao", "asha@example.com", "9876543210", "webinar"},
		{"Ravi Kumar", "", "+919812345678", ""},
	}
	for i, row := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	rows, err := ReadRecords(&buf, FormatXLSX, 0)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[2][0] != "Ravi Kumar" || rows[2][2] != "+919812345678" {
		t.Errorf("unexpected row %q", rows[2])
	}
}

func TestReadRecords_Unsupported(t *testing.T) {
	if _, err := ReadRecords(strings.NewReader(""), Format("ods"), 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
