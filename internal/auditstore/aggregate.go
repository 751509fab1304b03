package auditstore

import (
	"context"
	"fmt"

	"ai-compliance-gateway/internal/pii"
)

// Stats computes counts by action (read from metadata->>'action') over
// the filtered record set, plus the total count and the sum of risk-flag
// hits (spec §4.11: "compute counts by action ... and by each PII type").
func (s *Store) Stats(ctx context.Context, f Filter) (Stats, error) {
	where, args := whereClause(f, 0)

	const byActionTmpl = `
SELECT metadata->>'action' AS action, count(*)
FROM audit_logs %s
GROUP BY metadata->>'action'`
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(byActionTmpl, where), args...)
	if err != nil {
		return Stats{}, fmt.Errorf("stats by action: %w", err)
	}
	defer rows.Close()

	byAction := make(map[string]int)
	total := 0
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats row: %w", err)
		}
		byAction[action] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("stats by action: %w", err)
	}

	var piiHits int
	piiQ := fmt.Sprintf("SELECT coalesce(sum(jsonb_array_length(risk_flags)), 0) FROM audit_logs %s", where)
	if err := s.db.QueryRowContext(ctx, piiQ, args...).Scan(&piiHits); err != nil {
		return Stats{}, fmt.Errorf("stats pii hits: %w", err)
	}

	return Stats{Total: total, ByAction: byAction, TotalPIIHits: piiHits}, nil
}

// ViolationsSummary is Stats restricted to records that actually carry at
// least one risk flag — the "violations" view is a narrower lens on the
// same underlying schema, per spec §4.11's design note that no separate
// table is needed.
func (s *Store) ViolationsSummary(ctx context.Context, f Filter) (Stats, error) {
	f.HasRiskFlag = true
	return s.Stats(ctx, f)
}

// ViolationsByType counts occurrences of each PII type across risk_flags
// in the filtered set, classifying severity through the canonical Pattern
// Registry (spec §9: "The canonical source MUST be the Pattern Registry" —
// this is the REDESIGN FLAG implemented directly, replacing the inline
// severity list the distillation's source duplicated).
func (s *Store) ViolationsByType(ctx context.Context, f Filter) ([]TypeCount, error) {
	where, args := whereClause(f, 0)

	q := fmt.Sprintf(`
SELECT flag, count(*)
FROM audit_logs, jsonb_array_elements_text(risk_flags) AS flag
%s
GROUP BY flag
ORDER BY count(*) DESC`, where)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("violations by type: %w", err)
	}
	defer rows.Close()

	registry := pii.DefaultRegistry()
	var out []TypeCount
	for rows.Next() {
		var t string
		var count int
		if err := rows.Scan(&t, &count); err != nil {
			return nil, fmt.Errorf("scan violations-by-type row: %w", err)
		}
		out = append(out, TypeCount{
			Type:     t,
			Count:    count,
			Severity: registry.SeverityFor(pii.Type(t)).String(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("violations by type: %w", err)
	}
	return out, nil
}

// Trends buckets the filtered record set by day. bucketTZ is "utc" (the
// spec's default) or an IANA zone name for tenant-local bucketing — the
// Open Question in spec §9 resolved as a per-call configuration knob
// rather than a global setting, so a multi-tenant deployment can bucket
// different callers' trend views in their own timezone.
func (s *Store) Trends(ctx context.Context, f Filter, bucketTZ string) ([]DayCount, error) {
	where, args := whereClause(f, 0)
	zone := bucketTZ
	if zone == "" || zone == "utc" {
		zone = "UTC"
	}

	q := fmt.Sprintf(`
SELECT to_char(created_at AT TIME ZONE $%d, 'YYYY-MM-DD') AS day, count(*)
FROM audit_logs %s
GROUP BY day
ORDER BY day ASC`, len(args)+1, where)

	args = append(args, zone)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}
	return out, nil
}
