package auditstore

import (
	"context"
	"fmt"
	"strings"

	"ai-compliance-gateway/internal/audit"
)

// whereClause builds the shared WHERE predicate and positional args for
// List/Stats/ViolationsSummary/Trends — all of them filter the same
// dimensions (spec §4.11: "tenant, app, user, model, provider, date range,
// presence of risk flags, specific PII type").
func whereClause(f Filter, startAt int) (string, []any) {
	var (
		clauses []string
		args    []any
		n       = startAt
	)
	add := func(clause string, val any) {
		n++
		clauses = append(clauses, fmt.Sprintf(clause, n))
		args = append(args, val)
	}

	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.AppID != "" {
		add("app_id = $%d", f.AppID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Model != "" {
		add("model = $%d", f.Model)
	}
	if f.Provider != "" {
		add("provider = $%d", f.Provider)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}
	if f.HasRiskFlag {
		clauses = append(clauses, "jsonb_array_length(risk_flags) > 0")
	}
	if f.PIIType != "" {
		n++
		clauses = append(clauses, fmt.Sprintf("risk_flags @> $%d::jsonb", n))
		args = append(args, fmt.Sprintf("[%q]", f.PIIType))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// List returns one page of records, most-recent-first by default (spec
// §4.11), plus the total matching count for pagination.
func (s *Store) List(ctx context.Context, f Filter) (ListResult, error) {
	where, args := whereClause(f, 0)

	var total int
	countQ := "SELECT count(*) FROM audit_logs " + where
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count audit records: %w", err)
	}

	page, limit := normalizePage(f.Page, f.Limit)
	offset := (page - 1) * limit

	listQ := fmt.Sprintf(`
SELECT id, tenant_id, app_id, user_id, model, provider, prompt_fingerprint,
       input_tokens, output_tokens, latency_ms, risk_flags, metadata, created_at
FROM audit_logs %s
ORDER BY created_at DESC
LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := s.db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []audit.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list audit records: %w", err)
	}

	return ListResult{Records: records, Total: total}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
