// Package leadimport turns uploaded spreadsheet rows into new leads.
//
// The first non-blank row must be a header naming the columns; name is
// required and at least one of email or phone must be present. Column order
// is free and unknown columns are ignored. Row numbers in errors count the
// header as row 1 and skip blank rows.
package leadimport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/imaggar-technologies/brintelli/internal/app/system/csvutil"
	"github.com/imaggar-technologies/brintelli/internal/app/system/inputval"
	"github.com/imaggar-technologies/brintelli/internal/app/system/normalize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
)

// SourceImport is the lead source recorded when a row leaves it blank.
const SourceImport = "import"

var (
	// ErrNoHeader is returned when the first row does not name a name column
	// and an email or phone column.
	ErrNoHeader = errors.New(`header row must include "name" and "email" or "phone"`)
	// ErrEmpty is returned for an upload with a header and no data rows.
	ErrEmpty = errors.New("file has no lead rows")
)

// RowError describes why one row was skipped.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Row is a lead built from one spreadsheet row.
type Row struct {
	Row  int
	Lead models.Lead
}

// Result is the outcome of parsing one upload.
type Result struct {
	Rows   []Row
	Errors []RowError
}

// HasErrors returns true if any row was rejected.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// Importer validates rows. It is safe for concurrent use.
type Importer struct {
	phones *phone.Normalizer
}

// New returns an Importer normalizing phone numbers with phones.
func New(phones *phone.Normalizer) *Importer {
	return &Importer{phones: phones}
}

type rowInput struct {
	Name   string `json:"name" validate:"required,max=200" label:"Name"`
	Email  string `json:"email" validate:"omitempty,emailaddr" label:"Email"`
	Phone  string `json:"phone" validate:"omitempty,max=32" label:"Phone"`
	Source string `json:"source" validate:"max=64" label:"Source"`
}

var headerAliases = map[string]string{
	"name":          "name",
	"full name":     "name",
	"full_name":     "name",
	"lead name":     "name",
	"email":         "email",
	"email address": "email",
	"e-mail":        "email",
	"phone":         "phone",
	"phone number":  "phone",
	"mobile":        "phone",
	"source":        "source",
	"lead source":   "source",
}

type columns map[string]int

func parseHeader(rec []string) (columns, bool) {
	cols := columns{}
	for i, cell := range rec {
		key, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	_, hasName := cols["name"]
	_, hasEmail := cols["email"]
	_, hasPhone := cols["phone"]
	return cols, hasName && (hasEmail || hasPhone)
}

func (c columns) get(rec []string, key string) string {
	i, ok := c[key]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// Parse validates records (header first, as returned by csvutil.ReadRecords)
// and builds a lead for every valid row. Rows repeating an email seen
// earlier in the file are rejected.
func (im *Importer) Parse(records [][]string, actor string, now time.Time) (Result, error) {
	var res Result
	if len(records) == 0 {
		return res, ErrEmpty
	}
	cols, ok := parseHeader(records[0])
	if !ok {
		return res, ErrNoHeader
	}
	if len(records) == 1 {
		return res, ErrEmpty
	}
	if len(records)-1 > csvutil.MaxRows {
		return res, csvutil.ErrTooManyRows
	}

	seen := map[string]int{}
	for i, rec := range records[1:] {
		row := i + 2
		in := rowInput{
			Name:   normalize.Name(cols.get(rec, "name")),
			Email:  normalize.Email(cols.get(rec, "email")),
			Phone:  strings.TrimSpace(cols.get(rec, "phone")),
			Source: normalize.Source(cols.get(rec, "source")),
		}
		if r := inputval.Validate(in); r.HasErrors() {
			res.Errors = append(res.Errors, RowError{Row: row, Message: r.All()})
			continue
		}

		if in.Phone != "" {
			p, err := im.phones.Normalize(in.Phone)
			if err != nil {
				res.Errors = append(res.Errors, RowError{Row: row, Message: fmt.Sprintf("Phone %q is not a valid number.", in.Phone)})
				continue
			}
			in.Phone = p
		}

		if in.Email != "" {
			if first, dup := seen[in.Email]; dup {
				res.Errors = append(res.Errors, RowError{Row: row, Message: fmt.Sprintf("Duplicate email (first appears on row %d).", first)})
				continue
			}
			seen[in.Email] = row
		}

		if in.Source == "" {
			in.Source = SourceImport
		}
		lead, err := pipeline.NewLead(pipeline.NewLeadInput{
			Name:   in.Name,
			Email:  in.Email,
			Phone:  in.Phone,
			Source: in.Source,
		}, actor, now)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Message: rowMessage(err)})
			continue
		}
		lead.NameCI = text.Fold(lead.Name)
		res.Rows = append(res.Rows, Row{Row: row, Lead: lead})
	}
	return res, nil
}

func rowMessage(err error) string {
	var ve *pipeline.ValidationError
	if errors.As(err, &ve) {
		return ve.Message + "."
	}
	return err.Error()
}

// Leads returns the built leads in row order.
func (r *Result) Leads() []models.Lead {
	out := make([]models.Lead, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Lead
	}
	return out
}
