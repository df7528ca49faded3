package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *testDeps, *echo.Echo) {
	svc, deps := newTestServiceWithDeps()
	h := NewHandler(svc)
	h.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return h, deps, echo.New()
}

func seedAppointment(t *testing.T, h *Handler, d Draft) *Appointment {
	t.Helper()
	a, err := h.svc.CreateAppointment(userCtx(), d)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError with %d, got %T (%v)", code, err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, httpErr.Code, httpErr.Message)
	}
}

func TestHandler_CreateAppointment(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"title":"Therapie","start_date":"2024-06-10","start_time":"09:00","end_time":"10:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Start == nil || !a.Start.Equal(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", a.Start)
	}
}

func TestHandler_CreateAppointment_ValidationMessage(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"title":"Therapie","start_date":"2024-06-10","start_time":"10:00","end_time":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.CreateAppointment(c)
	expectHTTPError(t, err, http.StatusBadRequest)
	if msg := err.(*echo.HTTPError).Message; msg != ErrEndNotAfterStart.Error() {
		t.Errorf("expected validator message, got %v", msg)
	}
}

func TestHandler_GetAppointment(t *testing.T) {
	h, _, e := newTestHandler()
	a := seedAppointment(t, h, validDraft())

	tests := []struct {
		name string
		id   string
		code int
	}{
		{"found", a.ID.String(), http.StatusOK},
		{"not found", uuid.New().String(), http.StatusNotFound},
		{"invalid id", "abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			err := h.GetAppointment(c)
			if tt.code == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.Code != http.StatusOK {
					t.Errorf("expected 200, got %d", rec.Code)
				}
				return
			}
			expectHTTPError(t, err, tt.code)
		})
	}
}

func TestHandler_GetDraft(t *testing.T) {
	h, _, e := newTestHandler()
	a := seedAppointment(t, h, validDraft())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.GetDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var d Draft
	json.Unmarshal(rec.Body.Bytes(), &d)
	if d.StartDate != "2024-06-10" || d.StartTime != "09:00" || d.EndTime != "10:00" {
		t.Errorf("unexpected draft: %+v", d)
	}
}

func TestHandler_UpdateAppointment(t *testing.T) {
	h, _, e := newTestHandler()
	a := seedAppointment(t, h, validDraft())

	body := `{"title":"Neu","start_date":"2024-06-11","start_time":"09:00","end_time":"09:45"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.UpdateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Appointment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Title == nil || *got.Title != "Neu" {
		t.Errorf("expected updated title, got %v", got.Title)
	}
}

func TestHandler_DeleteAppointment_RequiresConfirmation(t *testing.T) {
	h, deps, e := newTestHandler()
	a := seedAppointment(t, h, validDraft())

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	expectHTTPError(t, h.DeleteAppointment(c), http.StatusPreconditionRequired)
	if _, ok := deps.appts.items[a.ID]; !ok {
		t.Fatal("appointment must not be deleted without confirmation")
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/?confirm=true", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	if err := h.DeleteAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, ok := deps.appts.items[a.ID]; ok {
		t.Error("expected appointment to be deleted")
	}
}

func TestHandler_ListAppointments_Filters(t *testing.T) {
	h, _, e := newTestHandler()
	cat := uuid.New()
	d := validDraft()
	d.CategoryID = &cat
	seedAppointment(t, h, d)
	d2 := validDraft()
	d2.StartDate = "2024-06-20"
	seedAppointment(t, h, d2)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?category=all&patient=all", 2},
		{"?category=" + cat.String(), 1},
		{"?from=2024-06-11", 1},
		{"?to=2024-06-10", 0},
		{"?from=2024-06-01&to=2024-06-30", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), rec)
			if err := h.ListAppointments(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var items []Appointment
			if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("expected %d appointments, got %d", tt.want, len(items))
			}
		})
	}
}

func TestHandler_ListAppointments_BadQuery(t *testing.T) {
	h, _, e := newTestHandler()
	for _, q := range []string{"?category=nope", "?patient=123", "?from=10.06.2024", "?to=2024-02-30"} {
		t.Run(q, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+q, nil), httptest.NewRecorder())
			expectHTTPError(t, h.ListAppointments(c), http.StatusBadRequest)
		})
	}
}

func TestHandler_ListAppointments_BackendError(t *testing.T) {
	h, deps, e := newTestHandler()
	deps.appts.listErr = errors.New("password authentication failed for user calendar")

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := h.ListAppointments(c)
	expectHTTPError(t, err, http.StatusInternalServerError)
	if msg := err.(*echo.HTTPError).Message; msg != "internal server error" {
		t.Errorf("backend details leaked: %v", msg)
	}
}

func TestHandler_MonthView(t *testing.T) {
	h, _, e := newTestHandler()
	seedAppointment(t, h, validDraft())

	tests := []struct {
		query     string
		wantMonth time.Month
		wantCount int
	}{
		{"", time.June, 1},
		{"?date=2024-06-01", time.June, 1},
		{"?date=2024-05-31&shift=1", time.June, 1},
		{"?shift=1", time.July, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), rec)
			if err := h.MonthView(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var grid struct {
				Month   time.Month               `json:"month"`
				Buckets map[string][]Appointment `json:"buckets"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if grid.Month != tt.wantMonth {
				t.Errorf("expected month %s, got %s", tt.wantMonth, grid.Month)
			}
			if got := len(grid.Buckets["2024-06-10"]); got != tt.wantCount {
				t.Errorf("expected %d appointments on 2024-06-10, got %d", tt.wantCount, got)
			}
		})
	}
}

func TestHandler_MonthView_BadShift(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?shift=next", nil), httptest.NewRecorder())
	expectHTTPError(t, h.MonthView(c), http.StatusBadRequest)
}

func TestHandler_WeekView(t *testing.T) {
	h, _, e := newTestHandler()
	seedAppointment(t, h, validDraft())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?date=2024-06-12", nil), rec)
	if err := h.WeekView(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var grid struct {
		Days  []string                            `json:"days"`
		Cells map[string]map[string][]Appointment `json:"cells"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(grid.Days) != 7 || grid.Days[0] != "2024-06-10" {
		t.Errorf("unexpected days: %v", grid.Days)
	}
	if len(grid.Cells["2024-06-10"]["9"]) != 1 {
		t.Errorf("expected the appointment in the 9:00 cell")
	}
}

func TestHandler_Dashboard(t *testing.T) {
	h, deps, e := newTestHandler()
	deps.categories.items = []*Category{{Label: strPtr("Therapie")}}
	seedAppointment(t, h, validDraft())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := h.Dashboard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var st Stats
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.TotalAppointments != 1 || st.Today != 1 || st.Categories != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestHandler_ListActivities(t *testing.T) {
	h, _, e := newTestHandler()
	a := seedAppointment(t, h, validDraft())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=5", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	if err := h.ListActivities(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []Activity `json:"data"`
		Total   int        `json:"total"`
		Limit   int        `json:"limit"`
		HasMore bool       `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Data) != 1 || resp.Limit != 5 || resp.HasMore {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_Categories(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"label":"Therapie","color":"#22c55e"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.CreateCategory(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	if err := h.ListCategories(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Category
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 || items[0].DisplayColor() != "#22c55e" {
		t.Errorf("unexpected categories: %+v", items)
	}
}
