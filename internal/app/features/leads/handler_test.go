package leads_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/imaggar-technologies/brintelli/internal/app/features/leads"
	"github.com/imaggar-technologies/brintelli/internal/app/store/audit"
	leadstore "github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	userstore "github.com/imaggar-technologies/brintelli/internal/app/store/users"
	"github.com/imaggar-technologies/brintelli/internal/app/system/leadimport"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/imaggar-technologies/brintelli/internal/domain/models"
	"github.com/imaggar-technologies/brintelli/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/* -------------------------------- fakes -------------------------------- */

type fakeStore struct {
	mu    sync.Mutex
	leads map[primitive.ObjectID]models.Lead
	order []primitive.ObjectID

	// beforeApply runs inside Apply before the version check.
	beforeApply func(s *fakeStore, id primitive.ObjectID)
	applies     int
	gets        int
}

func newFakeStore(seed ...models.Lead) *fakeStore {
	s := &fakeStore{leads: map[primitive.ObjectID]models.Lead{}}
	for _, l := range seed {
		s.put(l)
	}
	return s
}

func (s *fakeStore) put(l models.Lead) {
	if _, ok := s.leads[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.leads[l.ID] = l
}

func (s *fakeStore) get(id primitive.ObjectID) models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id]
}

func (s *fakeStore) emailTaken(email string) bool {
	for _, l := range s.leads {
		if email != "" && l.Email == email {
			return true
		}
	}
	return false
}

func (s *fakeStore) Create(_ context.Context, l models.Lead) (models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(l.Email) {
		return models.Lead{}, leadstore.ErrDuplicate
	}
	l.ID = primitive.NewObjectID()
	s.put(l)
	return l, nil
}

func (s *fakeStore) InsertMany(_ context.Context, in []models.Lead) (leadstore.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := leadstore.InsertResult{Failed: map[int]error{}}
	for i, l := range in {
		if s.emailTaken(l.Email) {
			res.Failed[i] = leadstore.ErrDuplicate
			continue
		}
		l.ID = primitive.NewObjectID()
		s.put(l)
		res.Inserted = append(res.Inserted, l)
	}
	return res, nil
}

func (s *fakeStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	l, ok := s.leads[id]
	if !ok {
		return models.Lead{}, leadstore.ErrNotFound
	}
	return l, nil
}

// List ignores the filter so the tests also prove the handler applies the
// in-memory visibility rules.
func (s *fakeStore) List(_ context.Context, _ bson.M, _ int64) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lead, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.leads[id])
	}
	return out, nil
}

func (s *fakeStore) Apply(_ context.Context, before, after models.Lead) (models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeApply != nil {
		s.beforeApply(s, before.ID)
	}
	cur, ok := s.leads[before.ID]
	if !ok {
		return models.Lead{}, leadstore.ErrNotFound
	}
	if cur.Version != before.Version {
		return models.Lead{}, leadstore.ErrConflict
	}
	after.Version = cur.Version + 1
	s.leads[before.ID] = after
	s.applies++
	return after, nil
}

type fakeHistory struct {
	events map[primitive.ObjectID][]audit.Event
}

func (f *fakeHistory) HistoryForLead(_ context.Context, id primitive.ObjectID, _ int64) ([]audit.Event, error) {
	return f.events[id], nil
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f[strings.ToLower(strings.TrimSpace(email))]; ok {
		return u, nil
	}
	return nil, userstore.ErrNotFound
}

func staff() fakeUsers {
	users := fakeUsers{}
	for _, u := range []models.User{
		{Email: agentEmail, Role: "sales_agent", Status: models.UserStatusActive},
		{Email: "mentor.sales@brintelli.test", Role: "sales_lead", Status: models.UserStatusActive},
		{Email: "gone@brintelli.test", Role: "sales_agent", Status: models.UserStatusDisabled},
		{Email: "lsm@brintelli.test", Role: "lsm", Status: models.UserStatusActive},
	} {
		users[u.Email] = &u
	}
	return users
}

/* ------------------------------- helpers ------------------------------- */

const agentEmail = "agent@brintelli.test"

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newHandler(t *testing.T, store *fakeStore) (*leads.Handler, http.Handler) {
	t.Helper()
	phones, err := phone.New("IN")
	if err != nil {
		t.Fatalf("phone.New: %v", err)
	}
	h := &leads.Handler{
		Leads:    store,
		History:  &fakeHistory{events: map[primitive.ObjectID][]audit.Event{}},
		Users:    staff(),
		Phones:   phones,
		Importer: leadimport.New(phones),
		Log:      zap.NewNop(),
		Now:      func() time.Time { return fixedNow },
	}
	return h, leads.Routes(h)
}

func lead(mods ...func(*models.Lead)) models.Lead {
	l := testutil.FakeLead()
	for _, m := range mods {
		m(&l)
	}
	return l
}

func completeDoc() models.PreScreening {
	return models.PreScreening{
		Form:           models.FormStandard,
		Education:      &models.EducationSection{HighestQualification: "B.Tech", FieldOfStudy: "CS", Institution: "NIT", GraduationYear: "2022"},
		Financial:      &models.FinancialSection{CurrentIncome: "4L", ExpectedIncome: "10L", FundingSource: "self", CanAffordFee: "yes"},
		Job:            &models.JobSection{CurrentRole: "Analyst", Company: "Acme", ExperienceYears: "2", EmploymentStatus: "employed"},
		Social:         &models.SocialSection{LinkedInProfile: "in/asha", City: "Pune", PreferredLanguage: "en", ReferralSource: "friend"},
		CourseInterest: &models.CourseInterestSection{Program: "Data Science", PreferredBatch: "May", LearningMode: "online", CareerGoal: "ML engineer"},
		Notes:          "Prefers weekend classes",
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func do(t *testing.T, router http.Handler, u testutil.TestUser, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithUser(req, u)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func path(l models.Lead, suffix string) string {
	return "/" + l.ID.Hex() + suffix
}

/* -------------------------------- lists -------------------------------- */

func TestServeList_AgentActiveContext(t *testing.T) {
	mine := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageMeetAndCall))
	other := lead(testutil.AssignedTo("someone@brintelli.test"), testutil.InStage(models.StageMeetAndCall))
	dumped := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageMeetAndCall), testutil.Deactivated("not interested"))
	_, router := newHandler(t, newFakeStore(mine, other, dumped))

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodGet, "/?context=active", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Columns []string `json:"columns"`
		Leads   []struct {
			ID         string `json:"id"`
			AssignedTo string `json:"assignedTo"`
			Completion int    `json:"completion"`
		} `json:"leads"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Leads) != 1 || data.Leads[0].ID != mine.ID.Hex() {
		t.Fatalf("expected only the agent's active lead, got %+v", data.Leads)
	}
	if data.Leads[0].AssignedTo != "" {
		t.Errorf("assignee should be blanked for agents, got %q", data.Leads[0].AssignedTo)
	}
	for _, c := range data.Columns {
		if c == "assignedTo" {
			t.Error("assignedTo column should be hidden for agents")
		}
	}
}

func TestServeList_TeamLeadSeesAssignee(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageMeetAndCall))
	_, router := newHandler(t, newFakeStore(l))

	_, env := do(t, router, testutil.SalesLead(), http.MethodGet, "/?context=active", nil)
	if !strings.Contains(string(env.Data), `"assignedTo":"`+agentEmail+`"`) {
		t.Errorf("expected assignee in response, got %s", env.Data)
	}
}

func TestServeList_Rejections(t *testing.T) {
	_, router := newHandler(t, newFakeStore())

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodGet, "/?context=overview", nil)
	if rec.Code != http.StatusForbidden || errCode(env) != "permission_denied" {
		t.Errorf("overview for agent: status %d code %q", rec.Code, errCode(env))
	}
	rec, env = do(t, router, testutil.SalesHead(), http.MethodGet, "/?context=archived", nil)
	if rec.Code != http.StatusBadRequest || errCode(env) != "validation_error" {
		t.Errorf("unknown context: status %d code %q", rec.Code, errCode(env))
	}
	student := testutil.TestUser{ID: "s", Email: "s@brintelli.test", Role: "student"}
	if rec, _ := do(t, router, student, http.MethodGet, "/", nil); rec.Code != http.StatusForbidden {
		t.Errorf("student: status %d, want 403", rec.Code)
	}
}

func TestServeLead_OutOfScopeIsNotFound(t *testing.T) {
	l := lead(testutil.AssignedTo("someone@brintelli.test"))
	_, router := newHandler(t, newFakeStore(l))

	if rec, _ := do(t, router, testutil.SalesAgent(agentEmail), http.MethodGet, path(l, ""), nil); rec.Code != http.StatusNotFound {
		t.Errorf("agent: status %d, want 404", rec.Code)
	}
	if rec, _ := do(t, router, testutil.SalesLead(), http.MethodGet, path(l, ""), nil); rec.Code != http.StatusOK {
		t.Errorf("team lead: status %d, want 200", rec.Code)
	}
	if rec, _ := do(t, router, testutil.SalesLead(), http.MethodGet, "/not-an-id", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status %d, want 400", rec.Code)
	}
}

/* ---------------------------- pre-screening ---------------------------- */

func TestPreScreening_CompleteReplaceAdvances(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPut, path(l, "/prescreening"), completeDoc())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Stage      string `json:"stage"`
		Completion int    `json:"completion"`
		Advanced   bool   `json:"advanced"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.Stage != string(models.StageMeetAndCall) || data.Completion != 100 || !data.Advanced {
		t.Errorf("unexpected response %+v", data)
	}
	if got := store.get(l.ID); got.PipelineStage != models.StageMeetAndCall || got.Version != l.Version+1 {
		t.Errorf("stored lead stage %s version %d", got.PipelineStage, got.Version)
	}

	// idempotent: saving again keeps the stage and does not report a move
	_, env = do(t, router, testutil.SalesAgent(agentEmail), http.MethodPut, path(l, "/prescreening"), completeDoc())
	_ = json.Unmarshal(env.Data, &data)
	if data.Advanced || data.Stage != string(models.StageMeetAndCall) {
		t.Errorf("second save: %+v", data)
	}
}

func TestPreScreening_PatchMerges(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail))
	l.PreScreening = models.PreScreening{Job: &models.JobSection{Company: "Acme"}}
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	patch := models.PreScreening{Social: &models.SocialSection{City: "Pune"}}
	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPatch, path(l, "/prescreening"), patch)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Completion int  `json:"completion"`
		Advanced   bool `json:"advanced"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.Completion != 10 || data.Advanced {
		t.Errorf("unexpected response %+v", data)
	}
	got := store.get(l.ID).PreScreening
	if got.Job == nil || got.Job.Company != "Acme" || got.Social == nil || got.Social.City != "Pune" {
		t.Errorf("merge lost data: %+v", got)
	}
}

func TestPreScreening_NotOwnLeadIsForbidden(t *testing.T) {
	l := lead(testutil.AssignedTo("someone@brintelli.test"))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPut, path(l, "/prescreening"), completeDoc())
	if rec.Code != http.StatusForbidden || errCode(env) != "permission_denied" {
		t.Errorf("status %d code %q", rec.Code, errCode(env))
	}
	if store.applies != 0 {
		t.Error("lead should not be written")
	}
}

/* ------------------------------- actions ------------------------------- */

func TestAssign(t *testing.T) {
	l := lead()
	l.PreScreening = completeDoc()
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, path(l, "/actions/assign"), map[string]string{"assignedTo": agentEmail})
	if rec.Code != http.StatusForbidden || errCode(env) != "permission_denied" {
		t.Fatalf("agent assign: status %d code %q", rec.Code, errCode(env))
	}

	rec, env = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/assign"), map[string]string{"assignedTo": "Agent@Brintelli.test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("lead assign: status %d body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Moved bool   `json:"moved"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if !data.Moved || data.To != string(models.StageMeetAndCall) {
		t.Errorf("assigning a complete lead should auto-advance, got %+v", data)
	}
	if got := store.get(l.ID); got.AssignedTo != agentEmail {
		t.Errorf("assignee = %q", got.AssignedTo)
	}

	rec, env = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/assign"), map[string]string{"assignedTo": "nobody"})
	if rec.Code != http.StatusBadRequest || env.Error.Field != "assignedTo" {
		t.Errorf("invalid assignee: status %d error %+v", rec.Code, env.Error)
	}
}

func TestAssign_RejectsUnusableAssignee(t *testing.T) {
	l := lead()
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	for _, email := range []string{"nobody-at-all@nowhere.invalid", "gone@brintelli.test", "lsm@brintelli.test"} {
		rec, env := do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/assign"), map[string]string{"assignedTo": email})
		if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Field != "assignedTo" {
			t.Errorf("%s: status %d error %+v", email, rec.Code, env.Error)
		}
	}
	if store.applies != 0 || store.get(l.ID).AssignedTo != "" {
		t.Error("a rejected assignee must not be written")
	}
}

func TestAction_InvalidBodySkipsLookup(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageOffer))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesHead(), http.MethodPost, path(l, "/actions/deactivate"), map[string]string{"reason": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d code %q", rec.Code, errCode(env))
	}
	if store.gets != 0 {
		t.Errorf("lead was loaded %d times before the body was validated", store.gets)
	}
}

func TestSubmitAssessment(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageMeetAndCall))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	body := map[string]string{"notes": "<b>Discussed</b> the program", "assessmentType": "aptitude"}
	rec, _ := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, path(l, "/actions/submit-assessment"), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := store.get(l.ID)
	if got.PipelineStage != models.StageAssessments {
		t.Errorf("stage = %s", got.PipelineStage)
	}
	if len(got.CallNotes) != 1 || got.CallNotes[0].Notes != "Discussed the program" {
		t.Errorf("call note not appended as plain text: %+v", got.CallNotes)
	}
	if got.CallNotes[0].CallDate != "2026-03-02" || got.CallNotes[0].CallTime != "09:30" {
		t.Errorf("call note should default to now: %+v", got.CallNotes[0])
	}
	if got.Assessment == nil || got.Assessment.SentBy != agentEmail {
		t.Errorf("assessment not recorded: %+v", got.Assessment)
	}

	// the lead has moved on; a second submit is a guard violation
	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, path(l, "/actions/submit-assessment"), body)
	if rec.Code != http.StatusConflict || errCode(env) != "guard_violation" {
		t.Errorf("second submit: status %d code %q", rec.Code, errCode(env))
	}
}

func TestBookAssessment(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageAssessments))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/book-assessment"), map[string]string{"time": "14:00"})
	if rec.Code != http.StatusBadRequest || env.Error.Field != "date" {
		t.Fatalf("missing date: status %d error %+v", rec.Code, env.Error)
	}

	rec, _ = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/book-assessment"),
		map[string]string{"date": "2026-03-10", "time": "14:00", "type": "aptitude"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := store.get(l.ID)
	if got.Assessment == nil || got.Assessment.Date != "2026-03-10" || got.Assessment.Assignee != agentEmail {
		t.Errorf("booking not recorded: %+v", got.Assessment)
	}
	if len(got.AssessmentBookings) != 1 {
		t.Errorf("expected one booking in history, got %d", len(got.AssessmentBookings))
	}

	rec, env = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/book-assessment"),
		map[string]string{"date": "2026-03-11", "time": "9:00", "assignee": "lsm@brintelli.test"})
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Field != "assignee" {
		t.Errorf("non-sales assignee: status %d error %+v", rec.Code, env.Error)
	}

	rec, _ = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/book-assessment"),
		map[string]string{"date": "2026-03-11", "time": "9:00", "assignee": "Mentor.Sales@brintelli.test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rebook: status %d body %s", rec.Code, rec.Body.String())
	}
	if got := store.get(l.ID).Assessment; got.Assignee != "mentor.sales@brintelli.test" || got.Time != "09:00" {
		t.Errorf("rebooked assessment = %+v", got)
	}
}

func TestAdvance(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageAssessments))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/advance"), map[string]string{"to": "assessments"})
	if rec.Code != http.StatusBadRequest || env.Error.Field != "to" {
		t.Errorf("advance to assessments: status %d error %+v", rec.Code, env.Error)
	}

	rec, env = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/advance"), map[string]string{"to": "primary_screening"})
	if rec.Code != http.StatusBadRequest || env.Error == nil || !strings.Contains(env.Error.Message, "offer, deal_negotiation") {
		t.Errorf("advance to primary_screening: status %d error %+v", rec.Code, env.Error)
	}

	rec, env = do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, path(l, "/actions/advance"), map[string]string{"to": "offer"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent making an offer: status %d code %q", rec.Code, errCode(env))
	}

	rec, env = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/advance"), map[string]string{"to": "deal_negotiation"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("team lead negotiating: status %d code %q", rec.Code, errCode(env))
	}

	rec, _ = do(t, router, testutil.SalesLead(), http.MethodPost, path(l, "/actions/advance"), map[string]string{"to": "offer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := store.get(l.ID).PipelineStage; got != models.StageOffer {
		t.Errorf("stage = %s, want offer", got)
	}

	rec, env = do(t, router, testutil.SalesHead(), http.MethodPost, path(l, "/actions/advance"), map[string]string{"to": "onboarded_to_lsm"})
	if rec.Code != http.StatusConflict || errCode(env) != "guard_violation" {
		t.Errorf("skipping stages: status %d code %q", rec.Code, errCode(env))
	}
}

func TestDeactivate(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageOffer))
	store := newFakeStore(l)
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesHead(), http.MethodPost, path(l, "/actions/deactivate"), map[string]string{"reason": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank reason: status %d code %q", rec.Code, errCode(env))
	}

	rec, _ = do(t, router, testutil.SalesHead(), http.MethodPost, path(l, "/actions/deactivate"), map[string]string{"reason": "Chose another institute"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := store.get(l.ID)
	if !got.IsDeactivated() || got.PipelineStage != models.StageOffer || got.Deactivation.By != "head@brintelli.test" {
		t.Errorf("unexpected lead after deactivation: stage %s deactivation %+v", got.PipelineStage, got.Deactivation)
	}

	rec, env = do(t, router, testutil.SalesHead(), http.MethodPost, path(l, "/actions/deactivate"), map[string]string{"reason": "again"})
	if rec.Code != http.StatusConflict || errCode(env) != "guard_violation" {
		t.Errorf("second deactivate: status %d code %q", rec.Code, errCode(env))
	}
	rec, _ = do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, path(l, "/call-notes"), map[string]string{"notes": "late call"})
	if rec.Code != http.StatusConflict {
		t.Errorf("note on deactivated lead: status %d, want 409", rec.Code)
	}
}

func TestStaleWriteIsConflict(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail))
	store := newFakeStore(l)
	store.beforeApply = func(s *fakeStore, id primitive.ObjectID) {
		cur := s.leads[id]
		cur.Version++
		s.leads[id] = cur
	}
	_, router := newHandler(t, store)

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, path(l, "/call-notes"), map[string]string{"notes": "hello"})
	if rec.Code != http.StatusConflict || errCode(env) != "conflict" {
		t.Errorf("status %d code %q", rec.Code, errCode(env))
	}
	if n := len(store.get(l.ID).CallNotes); n != 0 {
		t.Errorf("stale write should not append, have %d notes", n)
	}
}

/* ------------------------------ call notes ----------------------------- */

func TestCallNotes_AddAndList(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail), testutil.InStage(models.StageMeetAndCall))
	store := newFakeStore(l)
	_, router := newHandler(t, store)
	agent := testutil.SalesAgent(agentEmail)

	for _, n := range []map[string]string{
		{"notes": "first", "callDate": "2026-02-01", "callTime": "10:00"},
		{"notes": "latest", "callDate": "2026-02-03", "callTime": "09:00"},
		{"notes": "middle", "callDate": "2026-02-01", "callTime": "16:00"},
	} {
		if rec, _ := do(t, router, agent, http.MethodPost, path(l, "/call-notes"), n); rec.Code != http.StatusCreated {
			t.Fatalf("add note: status %d body %s", rec.Code, rec.Body.String())
		}
	}
	if got := store.get(l.ID); got.PipelineStage != models.StageMeetAndCall || len(got.CallNotes) != 3 {
		t.Errorf("notes must not move the lead: stage %s, %d notes", got.PipelineStage, len(got.CallNotes))
	}

	rec, env := do(t, router, agent, http.MethodGet, path(l, "/call-notes"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var data struct {
		Notes []models.CallNote `json:"notes"`
	}
	_ = json.Unmarshal(env.Data, &data)
	var order []string
	for _, n := range data.Notes {
		order = append(order, n.Notes)
	}
	if strings.Join(order, ",") != "latest,middle,first" {
		t.Errorf("display order = %v", order)
	}

	rec, env = do(t, router, agent, http.MethodPost, path(l, "/call-notes"), map[string]string{"notes": "x", "callDate": "02/03/2026"})
	if rec.Code != http.StatusBadRequest || env.Error.Field != "callDate" {
		t.Errorf("bad date: status %d error %+v", rec.Code, env.Error)
	}
}

/* --------------------------- create and import -------------------------- */

func TestCreate(t *testing.T) {
	store := newFakeStore()
	_, router := newHandler(t, store)

	if rec, _ := do(t, router, testutil.SalesAgent(agentEmail), http.MethodPost, "/", map[string]string{"name": "Asha"}); rec.Code != http.StatusForbidden {
		t.Errorf("agent create: status %d, want 403", rec.Code)
	}

	rec, env := do(t, router, testutil.SalesLead(), http.MethodPost, "/", map[string]string{
		"name": "  Asha   Rao ", "email": "Asha@Example.com", "phone": "098765 43210",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		Source        string `json:"source"`
		PipelineStage string `json:"pipelineStage"`
		AssignedTo    string `json:"assignedTo"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.Name != "Asha Rao" || data.Email != "asha@example.com" || data.Phone != "+919876543210" || data.Source != "manual" {
		t.Errorf("unexpected lead %+v", data)
	}
	if data.PipelineStage != string(models.StagePrimaryScreening) || data.AssignedTo != "" {
		t.Errorf("new lead should be unassigned in primary_screening: %+v", data)
	}

	rec, env = do(t, router, testutil.SalesLead(), http.MethodPost, "/", map[string]string{"name": "Dup", "email": "asha@example.com"})
	if rec.Code != http.StatusConflict || errCode(env) != "duplicate" {
		t.Errorf("duplicate: status %d code %q", rec.Code, errCode(env))
	}
	rec, _ = do(t, router, testutil.SalesLead(), http.MethodPost, "/", map[string]string{"name": "No contact"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no email or phone: status %d", rec.Code)
	}
}

func TestImport(t *testing.T) {
	existing := lead()
	existing.Email = "taken@example.com"
	store := newFakeStore(existing)
	_, router := newHandler(t, store)

	csv := "name,email,phone\nAsha,asha@example.com,\nRavi,taken@example.com,\n,blank@example.com,\n"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte(csv))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithUser(req, testutil.SalesHead())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Data struct {
			BatchID string                `json:"batchId"`
			Created int                   `json:"created"`
			Errors  []leadimport.RowError `json:"errors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Created != 1 || env.Data.BatchID == "" {
		t.Errorf("unexpected result %+v", env.Data)
	}
	if len(env.Data.Errors) != 2 || env.Data.Errors[0].Row != 3 || env.Data.Errors[1].Row != 4 {
		t.Errorf("expected errors on rows 3 and 4, got %+v", env.Data.Errors)
	}

	req = httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(""))
	req = testutil.WithUser(req, testutil.SalesLead())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("team lead import: status %d, want 403", rec.Code)
	}
}

/* -------------------------------- history ------------------------------- */

func TestServeHistory(t *testing.T) {
	l := lead(testutil.AssignedTo(agentEmail))
	store := newFakeStore(l)
	h, router := newHandler(t, store)
	h.History = &fakeHistory{events: map[primitive.ObjectID][]audit.Event{
		l.ID: {{Category: audit.CategoryPipeline, EventType: audit.EventLeadAssigned, LeadID: &l.ID}},
	}}

	rec, env := do(t, router, testutil.SalesAgent(agentEmail), http.MethodGet, path(l, "/history"), nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), audit.EventLeadAssigned) {
		t.Errorf("status %d data %s", rec.Code, env.Data)
	}
	if rec, _ := do(t, router, testutil.SalesAgent("other@brintelli.test"), http.MethodGet, path(l, "/history"), nil); rec.Code != http.StatusNotFound {
		t.Errorf("other agent: status %d, want 404", rec.Code)
	}
}
