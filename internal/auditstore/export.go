package auditstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvHeader is the column order for CSV export.
var csvHeader = []string{
	"id", "tenant_id", "app_id", "user_id", "model", "provider",
	"prompt_fingerprint", "input_tokens", "output_tokens", "latency_ms",
	"risk_flags", "action", "created_at",
}

// ExportCSV streams every record matching f to w as CSV, most-recent-first,
// without materializing the whole result set in memory — it pages through
// the table internally (spec §4.11: "streamed encoding/csv writer").
func (s *Store) ExportCSV(ctx context.Context, f Filter, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	const pageSize = 100 // List clamps larger limits to 100
	page := 1
	for {
		pageFilter := f
		pageFilter.Page = page
		pageFilter.Limit = pageSize

		result, err := s.List(ctx, pageFilter)
		if err != nil {
			return fmt.Errorf("export csv page %d: %w", page, err)
		}
		for _, rec := range result.Records {
			row := []string{
				rec.ID, rec.TenantID, rec.AppID, rec.UserID, rec.Model, rec.Provider,
				rec.PromptFingerprint, intPtrString(rec.InputTokens), intPtrString(rec.OutputTokens),
				strconv.FormatInt(rec.LatencyMS, 10), strings.Join(rec.RiskFlags, "|"),
				actionOf(rec.Metadata), rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row %s: %w", rec.ID, err)
			}
		}

		if len(result.Records) < pageSize {
			break
		}
		page++
	}

	cw.Flush()
	return cw.Error()
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func actionOf(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata["action"].(string); ok {
		return v
	}
	return ""
}

// ExportFilename returns a timestamped filename for a CSV export response,
// per spec §6 ("a timestamped filename").
func ExportFilename(timestamp string) string {
	return fmt.Sprintf("audit-export-%s.csv", timestamp)
}
