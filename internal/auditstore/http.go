package auditstore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ai-compliance-gateway/internal/audit"
	"ai-compliance-gateway/internal/logger"
)

// API exposes the read side over HTTP, per spec §6's "Audit read" table.
// Auth/JWT issuance and CORS wiring are external collaborators (spec §1)
// and are not implemented here or in cmd/auditsvc, which registers these
// routes on a plain ServeMux; they are layered in front of the process.
type API struct {
	repo       Repository
	trendZone  string
	log        *logger.Logger
}

// NewAPI builds an API over repo, bucketing Trends by trendZone unless a
// request overrides it with ?tz=.
func NewAPI(repo Repository, trendZone string, log *logger.Logger) *API {
	return &API{repo: repo, trendZone: trendZone, log: log}
}

// RegisterRoutes adds the read/write audit endpoints to mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/logs", a.handleWrite)
	mux.HandleFunc("GET /api/v1/logs", a.handleList)
	mux.HandleFunc("GET /api/v1/logs/{id}", a.handleGet)
	mux.HandleFunc("GET /api/v1/logs/stats", a.handleStats)
	mux.HandleFunc("GET /api/v1/logs/export/csv", a.handleExportCSV)
	mux.HandleFunc("GET /api/v1/violations", a.handleViolationsSummary)
	mux.HandleFunc("GET /api/v1/violations/summary", a.handleViolationsSummary)
	mux.HandleFunc("GET /api/v1/violations/trends", a.handleTrends)
	mux.HandleFunc("GET /api/v1/violations/by-type", a.handleViolationsByType)
	mux.HandleFunc("GET /api/v1/reports/audit", a.handleReport)
}

func (a *API) handleWrite(w http.ResponseWriter, r *http.Request) {
	var rec audit.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if rec.ID == "" {
		writeErr(w, http.StatusBadRequest, "id is required")
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := a.repo.Insert(r.Context(), rec); err != nil {
		a.log.Errorf("audit_write", "id=%s: %v", rec.ID, err)
		writeErr(w, http.StatusInternalServerError, "could not persist record")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed id")
		return
	}
	rec, err := a.repo.Get(r.Context(), id)
	if err != nil {
		a.log.Errorf("audit_get", "id=%s: %v", id, err)
		writeErr(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rec == nil {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := a.repo.List(r.Context(), f)
	if err != nil {
		a.log.Errorf("audit_list", "%v", err)
		writeErr(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": result.Records,
		"total":   result.Total,
		"page":    f.Page,
		"limit":   f.Limit,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := a.repo.Stats(r.Context(), f)
	if err != nil {
		a.log.Errorf("audit_stats", "%v", err)
		writeErr(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleViolationsSummary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := a.repo.ViolationsSummary(r.Context(), f)
	if err != nil {
		a.log.Errorf("violations_summary", "%v", err)
		writeErr(w, http.StatusInternalServerError, "violations summary failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleViolationsByType(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	types, err := a.repo.ViolationsByType(r.Context(), f)
	if err != nil {
		a.log.Errorf("violations_by_type", "%v", err)
		writeErr(w, http.StatusInternalServerError, "violations by type failed")
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (a *API) handleTrends(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	zone := a.trendZone
	if tz := r.URL.Query().Get("tz"); tz != "" {
		zone = tz
	}
	trends, err := a.repo.Trends(r.Context(), f, zone)
	if err != nil {
		a.log.Errorf("violations_trends", "%v", err)
		writeErr(w, http.StatusInternalServerError, "trends failed")
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (a *API) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	filename := ExportFilename(nowStamp())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	if err := a.repo.ExportCSV(r.Context(), f, w); err != nil {
		a.log.Errorf("audit_export_csv", "%v", err)
	}
}

// handleReport returns the structured content a PDF renderer would
// consume. PDF rendering itself is an external collaborator (spec §1),
// so this endpoint returns the report contract as JSON rather than bytes.
func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := BuildReportData(r.Context(), a.repo, f)
	if err != nil {
		a.log.Errorf("audit_report", "%v", err)
		writeErr(w, http.StatusInternalServerError, "report build failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		TenantID: q.Get("tenant_id"),
		AppID:    q.Get("app_id"),
		UserID:   q.Get("user_id"),
		Model:    q.Get("model"),
		Provider: q.Get("provider"),
		PIIType:  q.Get("pii_type"),
	}

	if v := q.Get("has_risk_flag"); v == "true" {
		f.HasRiskFlag = true
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid from: %w", err)
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid to: %w", err)
		}
		f.To = t
	}

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Filter{}, fmt.Errorf("invalid page: %q", v)
		}
		page = n
	}
	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return Filter{}, fmt.Errorf("invalid limit: %q (must be 1-100)", v)
		}
		limit = n
	}
	f.Page, f.Limit = page, limit

	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnect, nothing to do
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nowStamp() string { return time.Now().UTC().Format("20060102T150405Z") }
