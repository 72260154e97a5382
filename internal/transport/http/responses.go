package httptransport

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"reclass/internal/reclassify"
)

type errorResponse struct {
	Error string `json:"error"`
}

type reportResponse struct {
	RunID            string              `json:"run_id"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      time.Time           `json:"completed_at"`
	DryRun           bool                `json:"dry_run"`
	TotalEvaluated   int                 `json:"total_evaluated"`
	Qualified        int                 `json:"qualified"`
	MutationFailures int                 `json:"mutation_failures"`
	FailurePercent   int                 `json:"failure_percent"`
	RuleErrors       int                 `json:"rule_errors"`
	Violations       map[string][]string `json:"violations"`
	Outcomes         []outcomeResponse   `json:"outcomes"`
}

type outcomeResponse struct {
	OrgID   string `json:"org_id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func toReportResponse(report *reclassify.Report) reportResponse {
	violations := make(map[string][]string, len(report.Violations))
	for orgID, list := range report.Violations {
		violations[orgID.String()] = list
	}

	outcomes := make([]outcomeResponse, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		outcomes = append(outcomes, outcomeResponse{
			OrgID:   outcome.OrgID.String(),
			Success: outcome.Success,
			Message: outcome.Message,
		})
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].OrgID < outcomes[j].OrgID })

	return reportResponse{
		RunID:            report.RunID.String(),
		StartedAt:        report.StartedAt,
		CompletedAt:      report.CompletedAt,
		DryRun:           report.DryRun,
		TotalEvaluated:   report.TotalEvaluated,
		Qualified:        report.Qualified,
		MutationFailures: report.MutationFailures,
		FailurePercent:   report.FailurePercent,
		RuleErrors:       report.RuleErrors,
		Violations:       violations,
		Outcomes:         outcomes,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
