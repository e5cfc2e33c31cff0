package leadimport_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/system/csvutil"
	"github.com/imaggar-technologies/brintelli/internal/app/system/leadimport"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newImporter(t *testing.T) *leadimport.Importer {
	t.Helper()
	p, err := phone.New("IN")
	if err != nil {
		t.Fatalf("phone.New: %v", err)
	}
	return leadimport.New(p)
}

func parseCSV(t *testing.T, in string) (leadimport.Result, error) {
	t.Helper()
	recs, err := csvutil.ReadRecords(strings.NewReader(in), csvutil.FormatCSV, 0)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	return newImporter(t).Parse(recs, "head@brintelli.test", now)
}

func TestParse_ValidRows(t *testing.T) {
	res, err := parseCSV(t, `Phone,Name,Email,Source,Notes
98765 43210,Asha Rao,ASHA@example.com,Webinar,ignored
,Ravi Kumar,ravi@example.com,,
+919812345678,Meera,,,
`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	leads := res.Leads()
	if len(leads) != 3 {
		t.Fatalf("got %d leads, want 3", len(leads))
	}

	a := leads[0]
	if a.Name != "Asha Rao" || a.Email != "asha@example.com" || a.Phone != "+919876543210" || a.Source != "webinar" {
		t.Errorf("unexpected first lead %+v", a)
	}
	if a.PipelineStage != models.StagePrimaryScreening || a.AssignedTo != "" || a.Version != 1 {
		t.Errorf("imported lead should start unassigned in primary screening: %+v", a)
	}
	if a.CreatedBy != "head@brintelli.test" || !a.CreatedAt.Equal(now) {
		t.Errorf("audit fields not set: %q %v", a.CreatedBy, a.CreatedAt)
	}
	if leads[1].Source != leadimport.SourceImport {
		t.Errorf("blank source should default to %q, got %q", leadimport.SourceImport, leads[1].Source)
	}
	if res.Rows[2].Row != 4 {
		t.Errorf("third lead row = %d, want 4", res.Rows[2].Row)
	}
}

func TestParse_RowErrors(t *testing.T) {
	res, err := parseCSV(t, `name,email,phone
,nobody@example.com,
Asha,not-an-email,
Ravi,,
Meera,meera@example.com,12
Kiran,kiran@example.com,
Kiran Again,KIRAN@example.com,
`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Lead.Name != "Kiran" {
		t.Fatalf("expected only Kiran to import, got %+v", res.Rows)
	}

	want := map[int]string{
		2: "Name is required",
		3: "valid email",
		4: "email or phone",
		5: "Phone",
		7: "Duplicate email (first appears on row 6)",
	}
	if len(res.Errors) != len(want) {
		t.Fatalf("got %d errors, want %d: %+v", len(res.Errors), len(want), res.Errors)
	}
	for _, e := range res.Errors {
		frag, ok := want[e.Row]
		if !ok {
			t.Errorf("unexpected error on row %d: %s", e.Row, e.Message)
			continue
		}
		if !strings.Contains(e.Message, frag) {
			t.Errorf("row %d message %q does not mention %q", e.Row, e.Message, frag)
		}
	}
}

func TestParse_Header(t *testing.T) {
	im := newImporter(t)
	tests := []struct {
		name string
		recs [][]string
		want error
	}{
		{"empty", nil, leadimport.ErrEmpty},
		{"no header", [][]string{{"Asha", "asha@example.com"}}, leadimport.ErrNoHeader},
		{"name only", [][]string{{"name", "source"}, {"Asha", "x"}}, leadimport.ErrNoHeader},
		{"header only", [][]string{{"name", "email"}}, leadimport.ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := im.Parse(tt.recs, "a@b.test", now); !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_RowLimit(t *testing.T) {
	recs := [][]string{{"name", "email"}}
	for i := 0; i <= csvutil.MaxRows; i++ {
		recs = append(recs, []string{"x", ""})
	}
	if _, err := newImporter(t).Parse(recs, "a@b.test", now); !errors.Is(err, csvutil.ErrTooManyRows) {
		t.Errorf("expected ErrTooManyRows, got %v", err)
	}
}
