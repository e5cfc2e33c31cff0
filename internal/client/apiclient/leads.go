package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/imaggar-technologies/brintelli/internal/domain/models"
)

// Lead is a lead as the API returns it.
type Lead struct {
	models.Lead
	Completion     int          `json:"completion"`
	EffectiveStage models.Stage `json:"effectiveStage"`
	Deactivated    bool         `json:"deactivated"`
}

// LeadList is the response of ListLeads.
type LeadList struct {
	Context string   `json:"context"`
	Columns []string `json:"columns"`
	Leads   []Lead   `json:"leads"`
	Count   int      `json:"count"`
}

// ActionResult is the response of a pipeline action.
type ActionResult struct {
	Lead   Lead         `json:"lead"`
	Action string       `json:"action"`
	From   models.Stage `json:"from"`
	To     models.Stage `json:"to"`
	Moved  bool         `json:"moved"`
}

// PreScreeningResult is the response of SavePreScreening.
type PreScreeningResult struct {
	Stage      models.Stage `json:"stage"`
	Completion int          `json:"completion"`
	Advanced   bool         `json:"advanced"`
	Missing    []string     `json:"missing"`
	Version    int64        `json:"version"`
}

// CallNoteInput is a call note to record. Empty date and time default to
// the server's current UTC time.
type CallNoteInput struct {
	Notes    string `json:"notes"`
	CallDate string `json:"callDate,omitempty"`
	CallTime string `json:"callTime,omitempty"`
}

// Booking is an assessment slot.
type Booking struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Type     string `json:"type,omitempty"`
	Assignee string `json:"assignee,omitempty"`
}

func leadPath(id, suffix string) string {
	return "/api/leads/" + url.PathEscape(id) + suffix
}

// ListLeads returns the leads visible to the caller in the given page
// context (new, active, assessments, overview, deactivated). limit <= 0
// uses the server default.
func (c *Client) ListLeads(ctx context.Context, pageContext string, limit int) (*LeadList, error) {
	q := url.Values{}
	if pageContext != "" {
		q.Set("context", pageContext)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/leads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out LeadList
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLead returns one lead.
func (c *Client) GetLead(ctx context.Context, id string) (*Lead, error) {
	var out Lead
	if err := c.Do(ctx, http.MethodGet, leadPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SavePreScreening replaces the pre-screening document, or merges its
// non-empty fields when merge is true.
func (c *Client) SavePreScreening(ctx context.Context, id string, doc models.PreScreening, merge bool) (*PreScreeningResult, error) {
	method := http.MethodPut
	if merge {
		method = http.MethodPatch
	}
	var out PreScreeningResult
	if err := c.Do(ctx, method, leadPath(id, "/prescreening"), doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallNotes returns the lead's call notes in display order.
func (c *Client) CallNotes(ctx context.Context, id string) ([]models.CallNote, error) {
	var out struct {
		Notes []models.CallNote `json:"notes"`
	}
	if err := c.Do(ctx, http.MethodGet, leadPath(id, "/call-notes"), nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

// AddCallNote records a note without changing the stage.
func (c *Client) AddCallNote(ctx context.Context, id string, in CallNoteInput) (*models.CallNote, error) {
	var out struct {
		Note models.CallNote `json:"note"`
	}
	if err := c.Do(ctx, http.MethodPost, leadPath(id, "/call-notes"), in, &out); err != nil {
		return nil, err
	}
	return &out.Note, nil
}

func (c *Client) action(ctx context.Context, id, name string, body any) (*ActionResult, error) {
	var out ActionResult
	if err := c.Do(ctx, http.MethodPost, leadPath(id, "/actions/"+name), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assign sets the lead owner.
func (c *Client) Assign(ctx context.Context, id, assignee string) (*ActionResult, error) {
	return c.action(ctx, id, "assign", map[string]string{"assignedTo": assignee})
}

// SubmitAssessment records the call note and moves the lead to assessments.
func (c *Client) SubmitAssessment(ctx context.Context, id string, note CallNoteInput, assessmentType string) (*ActionResult, error) {
	body := struct {
		CallNoteInput
		AssessmentType string `json:"assessmentType,omitempty"`
	}{note, assessmentType}
	return c.action(ctx, id, "submit-assessment", body)
}

// BookAssessment books (or rebooks) an assessment slot.
func (c *Client) BookAssessment(ctx context.Context, id string, b Booking) (*ActionResult, error) {
	return c.action(ctx, id, "book-assessment", b)
}

// Advance moves the lead to a later stage.
func (c *Client) Advance(ctx context.Context, id string, to models.Stage) (*ActionResult, error) {
	return c.action(ctx, id, "advance", map[string]string{"to": string(to)})
}

// Deactivate moves the lead to the lead dump.
func (c *Client) Deactivate(ctx context.Context, id, reason string) (*ActionResult, error) {
	return c.action(ctx, id, "deactivate", map[string]string{"reason": reason})
}
