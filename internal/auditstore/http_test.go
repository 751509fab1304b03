package auditstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-compliance-gateway/internal/audit"
	"ai-compliance-gateway/internal/logger"
)

func newTestAPI(repo Repository) *http.ServeMux {
	api := NewAPI(repo, "utc", logger.New("TEST", "error"))
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return mux
}

type insertingRepo struct {
	fakeRepo
	inserted *audit.Record
}

func (r *insertingRepo) Insert(_ context.Context, rec audit.Record) error {
	r.inserted = &rec
	return nil
}

func (r *insertingRepo) Get(_ context.Context, id string) (*audit.Record, error) {
	if r.inserted != nil && r.inserted.ID == id {
		return r.inserted, nil
	}
	return nil, nil
}

func TestHandleWrite_PersistsRecordAndDefaultsCreatedAt(t *testing.T) {
	repo := &insertingRepo{}
	mux := newTestAPI(repo)

	body := `{"id":"11111111-1111-1111-1111-111111111111","tenantId":"t1","appId":"app1","model":"gpt-4o","provider":"openai","promptFingerprint":"fp","riskFlags":[],"metadata":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if repo.inserted == nil {
		t.Fatal("expected Insert to be called")
	}
	if repo.inserted.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be defaulted")
	}
}

func TestHandleWrite_MissingIDReturns400(t *testing.T) {
	repo := &insertingRepo{}
	mux := newTestAPI(repo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(`{"tenantId":"t1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestHandleGet_MalformedIDReturns400(t *testing.T) {
	mux := newTestAPI(&insertingRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestHandleGet_UnknownIDReturns404(t *testing.T) {
	mux := newTestAPI(&insertingRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/11111111-1111-1111-1111-111111111111", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
}

func TestHandleList_InvalidLimitReturns400(t *testing.T) {
	mux := newTestAPI(&fakeRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?limit=500", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestHandleList_ReturnsRecordsAndTotal(t *testing.T) {
	repo := &fakeRepo{listResult: ListResult{Records: []audit.Record{{ID: "rec-1"}}, Total: 1}}
	mux := newTestAPI(repo)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["total"].(float64) != 1 {
		t.Errorf("got total %v", body["total"])
	}
}

func TestFilterFromQuery_InvalidFromReturnsError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=not-a-date", nil)
	if _, err := filterFromQuery(req); err == nil {
		t.Error("expected an error for an invalid 'from' timestamp")
	}
}

func TestFilterFromQuery_ValidRFC3339(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?from="+ts, nil)
	f, err := filterFromQuery(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.From.IsZero() {
		t.Error("expected From to be parsed")
	}
}

func TestHandleExportCSV_SetsContentDisposition(t *testing.T) {
	mux := newTestAPI(&fakeRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/export/csv", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("got content-type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Error("expected an attachment content-disposition header")
	}
}

func TestHandleReport_ReturnsReportJSON(t *testing.T) {
	repo := &fakeRepo{stats: Stats{Total: 1}}
	mux := newTestAPI(repo)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/audit", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	var report ReportData
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Stats.Total != 1 {
		t.Errorf("got stats total %d, want 1", report.Stats.Total)
	}
}
