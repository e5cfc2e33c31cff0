// internal/app/features/leads/create.go
package leads

import (
	"cmp"
	"errors"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/imaggar-technologies/brintelli/internal/app/policy/leadpolicy"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/system/authz"
	"github.com/imaggar-technologies/brintelli/internal/app/system/csvutil"
	"github.com/imaggar-technologies/brintelli/internal/app/system/htmlsanitize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/httpjson"
	"github.com/imaggar-technologies/brintelli/internal/app/system/leadimport"
	"github.com/imaggar-technologies/brintelli/internal/app/system/metrics"
	"github.com/imaggar-technologies/brintelli/internal/app/system/normalize"
	"github.com/imaggar-technologies/brintelli/internal/app/system/timeouts"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.uber.org/zap"
)

// HandleCreate adds one lead by hand. It starts unassigned in
// primary_screening.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)
	if err := leadpolicy.CanPerform(actor, models.Lead{}, pipeline.ActionCreate, ""); err != nil {
		h.fail(w, pipeline.ActionCreate, err)
		return
	}

	var req createRequest
	if err := decodeValid(w, r, &req); err != nil {
		h.fail(w, pipeline.ActionCreate, err)
		return
	}

	phoneE164, err := h.Phones.Normalize(req.Phone)
	if err != nil {
		h.fail(w, pipeline.ActionCreate, &pipeline.ValidationError{Field: "phone", Message: "not a valid phone number"})
		return
	}
	source := normalize.Source(htmlsanitize.PlainText(req.Source))
	if source == "" {
		source = "manual"
	}

	lead, err := pipeline.NewLead(pipeline.NewLeadInput{
		Name:   normalize.Name(htmlsanitize.PlainText(req.Name)),
		Email:  normalize.Email(req.Email),
		Phone:  phoneE164,
		Source: source,
	}, actor.Identity, h.now())
	if err != nil {
		h.fail(w, pipeline.ActionCreate, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "lead create")
	defer cancel()

	saved, err := h.Leads.Create(ctx, lead)
	if err != nil {
		h.fail(w, pipeline.ActionCreate, err)
		return
	}

	o := pipeline.Outcome{
		Lead:   saved,
		Action: pipeline.ActionCreate,
		From:   saved.CurrentStage(),
		To:     saved.CurrentStage(),
	}
	h.AuditLog.Outcome(ctx, r, actor, o)
	h.Metrics.ObserveOutcome(o)
	httpjson.Write(w, http.StatusCreated, toView(actor, saved))
}

// HandleImport creates leads from an uploaded CSV or XLSX file (form field
// "file"). Valid rows are inserted even when other rows fail; every
// rejected row is reported with its row number.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)
	if !actor.Can(authz.PermImportLeads) {
		httpjson.FromError(w, h.Log, pipeline.ErrPermissionDenied)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "file", Message: "upload a .csv or .xlsx file of at most 5 MB"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer file.Close()

	format, err := csvutil.DetectFormat(header.Filename)
	if err != nil {
		httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "file", Message: err.Error()})
		return
	}
	records, err := csvutil.ReadRecords(file, format, csvutil.MaxRows)
	if err != nil {
		h.Log.Info("lead import unreadable", zap.String("filename", header.Filename), zap.Error(err))
		httpjson.FromError(w, h.Log, &pipeline.ValidationError{Field: "file", Message: err.Error()})
		return
	}

	parsed, err := h.Importer.Parse(records, actor.Identity, h.now())
	if err != nil {
		if errors.Is(err, leadimport.ErrNoHeader) || errors.Is(err, leadimport.ErrEmpty) || errors.Is(err, csvutil.ErrTooManyRows) {
			err = &pipeline.ValidationError{Field: "file", Message: err.Error()}
		}
		httpjson.FromError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "lead import")
	defer cancel()

	ins, err := h.Leads.InsertMany(ctx, parsed.Leads())
	if err != nil {
		h.Log.Error("lead import insert failed", zap.String("actor", actor.Identity), zap.Error(err))
		httpjson.FromError(w, h.Log, err)
		return
	}

	rowErrs := append([]leadimport.RowError{}, parsed.Errors...)
	for i, ferr := range ins.Failed {
		msg := "A lead with this email already exists."
		if !errors.Is(ferr, leadstore.ErrDuplicate) {
			msg = "Could not save this row."
		}
		rowErrs = append(rowErrs, leadimport.RowError{Row: parsed.Rows[i].Row, Message: msg})
	}
	sortRowErrors(rowErrs)

	batchID := uuid.NewString()
	created, failed := len(ins.Inserted), len(rowErrs)
	h.AuditLog.LeadsImported(ctx, r, actor, batchID, created, failed)
	if h.Metrics != nil {
		h.Metrics.LeadsImported.WithLabelValues(metrics.ResultOK).Add(float64(created))
		h.Metrics.LeadsImported.WithLabelValues(metrics.ResultInvalid).Add(float64(failed))
	}
	h.Log.Info("leads imported",
		zap.String("batch_id", batchID),
		zap.String("actor", actor.Identity),
		zap.Int("created", created),
		zap.Int("failed", failed))

	httpjson.OK(w, importResponse{BatchID: batchID, Created: created, Errors: rowErrs})
}

func sortRowErrors(errs []leadimport.RowError) {
	slices.SortStableFunc(errs, func(a, b leadimport.RowError) int { return cmp.Compare(a.Row, b.Row) })
}
