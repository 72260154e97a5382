package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// every classification change (or failed attempt) on a customer record.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers run lifecycle events useful for debugging
	// and operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Action names the audited occurrence.
type Action string

const (
	ActionRunStarted          Action = "run_started"
	ActionRunCompleted        Action = "run_completed"
	ActionRunFailed           Action = "run_failed"
	ActionOrgReclassified     Action = "org_reclassified"
	ActionOrgReclassifyFailed Action = "org_reclassify_failed"
)

// actionCategories maps each action to its category. Classification changes
// are compliance events; run lifecycle is operational.
var actionCategories = map[Action]EventCategory{
	ActionRunStarted:          CategoryOperations,
	ActionRunCompleted:        CategoryOperations,
	ActionRunFailed:           CategoryOperations,
	ActionOrgReclassified:     CategoryCompliance,
	ActionOrgReclassifyFailed: CategoryCompliance,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from the pipeline to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	RunID     string        `json:"run_id"`
	OrgID     string        `json:"org_id,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	// Trigger metadata: who launched the run and from where.
	Actor     string `json:"actor,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
