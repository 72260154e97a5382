package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "reclass/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL so a run's trail survives a
// restart. Writes are append-only; nothing in the service updates or deletes
// an audit row.
type Store struct {
	db *sql.DB
}

// New constructs the store and ensures the audit table exists. The service
// owns this table alone, so creating it here keeps deployments to a single
// migration surface.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id         UUID PRIMARY KEY,
			category   TEXT NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL,
			action     TEXT NOT NULL,
			run_id     TEXT NOT NULL,
			org_id     TEXT,
			reason     TEXT,
			actor      TEXT,
			client_ip  TEXT,
			user_agent TEXT,
			request_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_events_run ON audit_events (run_id, timestamp)`,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure audit table: %w", err)
	}
	return &Store{db: db}, nil
}

// Append writes one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, timestamp, action, run_id,
			org_id, reason, actor, client_ip, user_agent, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.New().String(),
		string(event.Category),
		event.Timestamp,
		string(event.Action),
		event.RunID,
		nullable(event.OrgID),
		nullable(event.Reason),
		nullable(event.Actor),
		nullable(event.ClientIP),
		nullable(event.UserAgent),
		nullable(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRun returns a run's trail in emission order.
func (s *Store) ListByRun(ctx context.Context, runID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, action, run_id,
		       COALESCE(org_id, ''), COALESCE(reason, ''), COALESCE(actor, ''),
		       COALESCE(client_ip, ''), COALESCE(user_agent, ''), COALESCE(request_id, '')
		FROM audit_events
		WHERE run_id = $1
		ORDER BY timestamp, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			action   string
		)
		if err := rows.Scan(
			&category, &event.Timestamp, &action, &event.RunID,
			&event.OrgID, &event.Reason, &event.Actor,
			&event.ClientIP, &event.UserAgent, &event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
