package auditstore

import (
	"context"
	"fmt"
	"time"
)

// ReportData is the structured content a PDF renderer would consume for
// GET /api/v1/reports/audit. Rendering itself (wkhtmltopdf, a Go PDF
// library, whatever the operator wires in) is an external collaborator
// per spec §1 — this package stops at producing the content.
type ReportData struct {
	GeneratedAt       time.Time   `json:"generatedAt"`
	Stats             Stats       `json:"stats"`
	ViolationsByType  []TypeCount `json:"violationsByType"`
	RecentViolations  []string    `json:"recentViolationIds"`
}

// BuildReportData assembles the report content from the same Repository
// queries the JSON endpoints use, so the PDF report and the dashboard
// views can never disagree about what a "violation" is.
func BuildReportData(ctx context.Context, repo Repository, f Filter) (ReportData, error) {
	stats, err := repo.ViolationsSummary(ctx, f)
	if err != nil {
		return ReportData{}, fmt.Errorf("report stats: %w", err)
	}
	byType, err := repo.ViolationsByType(ctx, f)
	if err != nil {
		return ReportData{}, fmt.Errorf("report violations by type: %w", err)
	}

	listFilter := f
	listFilter.HasRiskFlag = true
	listFilter.Page, listFilter.Limit = 1, 20
	recent, err := repo.List(ctx, listFilter)
	if err != nil {
		return ReportData{}, fmt.Errorf("report recent violations: %w", err)
	}
	ids := make([]string, len(recent.Records))
	for i, rec := range recent.Records {
		ids[i] = rec.ID
	}

	return ReportData{
		GeneratedAt:      time.Now().UTC(),
		Stats:            stats,
		ViolationsByType: byType,
		RecentViolations: ids,
	}, nil
}
