// Package auditstore implements the read side (C11) of the audit record
// schema: list, single-get, aggregate statistics, violations summaries,
// per-day trends, and CSV export, plus the append-only write path the
// Emitter posts to. The design interest, per spec §4.11, is that the audit
// record's risk_flags/metadata.action fields are sufficient for every view
// the product needs — no denormalized reporting tables are required.
package auditstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq" // postgres driver, registered via database/sql

	"ai-compliance-gateway/internal/audit"
)

// Filter narrows List/Stats/Trends queries. Zero-value fields are
// unfiltered. Page/Limit are validated by the HTTP layer (spec §4.11:
// page ≥ 1, 1 ≤ limit ≤ 100); List also clamps out-of-range values
// (page < 1 → 1, limit < 1 → 20, limit > 100 → 100).
type Filter struct {
	TenantID    string
	AppID       string
	UserID      string
	Model       string
	Provider    string
	From        time.Time
	To          time.Time
	HasRiskFlag bool   // true: only records with at least one risk flag
	PIIType     string // non-empty: only records whose risk_flags contains this type
	Page        int
	Limit       int
}

// ListResult is one page of records plus the total matching count.
type ListResult struct {
	Records []audit.Record
	Total   int
}

// Stats is the aggregate counts view (GET /api/v1/logs/stats).
type Stats struct {
	Total        int            `json:"total"`
	ByAction     map[string]int `json:"byAction"`
	TotalPIIHits int            `json:"totalPiiHits"`
}

// TypeCount is one entry of the violations-by-type breakdown.
type TypeCount struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Severity string `json:"severity"`
}

// DayCount is one bucket of the trend series.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD in the configured bucket timezone
	Count int    `json:"count"`
}

// Repository is what the read-side HTTP handlers and the write endpoint
// depend on. A single Postgres implementation backs it in production;
// tests substitute a sqlmock-backed *sql.DB (see store_test.go).
type Repository interface {
	Insert(ctx context.Context, rec audit.Record) error
	Get(ctx context.Context, id string) (*audit.Record, error)
	List(ctx context.Context, f Filter) (ListResult, error)
	Stats(ctx context.Context, f Filter) (Stats, error)
	ViolationsSummary(ctx context.Context, f Filter) (Stats, error)
	ViolationsByType(ctx context.Context, f Filter) ([]TypeCount, error)
	Trends(ctx context.Context, f Filter, bucketTZ string) ([]DayCount, error)
	ExportCSV(ctx context.Context, f Filter, w io.Writer) error
}

// Store is the Postgres-backed Repository implementation.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and verifies it with a ping.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping audit store: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-open *sql.DB, used by tests against sqlmock.
func New(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Insert appends rec to the audit_logs table. The write is idempotent on
// id via ON CONFLICT DO NOTHING, so a retried submission from the Emitter
// after a network blip never double-writes (spec §4.11/§6).
func (s *Store) Insert(ctx context.Context, rec audit.Record) error {
	riskFlags, err := json.Marshal(nonNilStrings(rec.RiskFlags))
	if err != nil {
		return fmt.Errorf("marshal risk_flags: %w", err)
	}
	metadata, err := json.Marshal(nonNilMap(rec.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	const q = `
INSERT INTO audit_logs (
	id, tenant_id, app_id, user_id, model, provider, prompt_fingerprint,
	input_tokens, output_tokens, latency_ms, risk_flags, metadata, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, q,
		rec.ID, rec.TenantID, rec.AppID, nullableString(rec.UserID), rec.Model, rec.Provider,
		rec.PromptFingerprint, rec.InputTokens, rec.OutputTokens, rec.LatencyMS,
		riskFlags, metadata, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a single record by id. It returns (nil, nil) — not an
// error — when the id is well-formed but no record exists, so the HTTP
// handler can turn that into a 404 (spec §6: "404 on missing").
func (s *Store) Get(ctx context.Context, id string) (*audit.Record, error) {
	const q = `
SELECT id, tenant_id, app_id, user_id, model, provider, prompt_fingerprint,
       input_tokens, output_tokens, latency_ms, risk_flags, metadata, created_at
FROM audit_logs WHERE id = $1`

	row := s.db.QueryRowContext(ctx, q, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit record %s: %w", id, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*audit.Record, error) {
	var (
		rec                  audit.Record
		userID               sql.NullString
		inputTok, outputTok  sql.NullInt64
		riskFlagsJSON        []byte
		metadataJSON         []byte
	)

	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.AppID, &userID, &rec.Model, &rec.Provider,
		&rec.PromptFingerprint, &inputTok, &outputTok, &rec.LatencyMS,
		&riskFlagsJSON, &metadataJSON, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.UserID = userID.String
	if inputTok.Valid {
		v := int(inputTok.Int64)
		rec.InputTokens = &v
	}
	if outputTok.Valid {
		v := int(outputTok.Int64)
		rec.OutputTokens = &v
	}
	if len(riskFlagsJSON) > 0 {
		_ = json.Unmarshal(riskFlagsJSON, &rec.RiskFlags) //nolint:errcheck // malformed JSONB treated as empty
	}
	if len(metadataJSON) > 0 {
		_ = json.Unmarshal(metadataJSON, &rec.Metadata) //nolint:errcheck // malformed JSONB treated as empty
	}
	return &rec, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
