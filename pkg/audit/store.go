package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultRecentLimit = 50

// DB is the subset of pgxpool.Pool and pgx.Tx used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists events in the audit_events table.
type Store struct {
	db DB
}

// NewStore creates a Postgres-backed event store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const insertEventSQL = `
INSERT INTO audit_events (id, occurred_at, tenant_id, action, resource, outcome, details)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

// Insert writes e. Re-inserting the same event ID is a no-op, so retried jobs are safe.
func (s *Store) Insert(ctx context.Context, e Event) error {
	if e.ID == "" {
		return ErrMissingEventID
	}

	var details []byte
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return errors.Join(ErrInvalidDetails, err)
		}
		details = b
	}

	_, err := s.db.Exec(ctx, insertEventSQL,
		e.ID, e.Time, e.TenantID, e.Action, e.Resource, string(e.Outcome), details,
	)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

const recentEventsSQL = `
SELECT id, occurred_at, tenant_id, action, resource, outcome, details
FROM audit_events
WHERE ($1::text = '' OR tenant_id = $1::text)
ORDER BY occurred_at DESC
LIMIT $2`

// Recent returns up to limit events, newest first. An empty tenantID returns events for all tenants.
func (s *Store) Recent(ctx context.Context, tenantID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.Query(ctx, recentEventsSQL, tenantID, limit)
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e        Event
			outcome  string
			details  []byte
			occurred time.Time
		)
		if err := rows.Scan(&e.ID, &occurred, &e.TenantID, &e.Action, &e.Resource, &outcome, &details); err != nil {
			return nil, errors.Join(ErrStoreFailed, err)
		}
		e.Time = occurred.UTC()
		e.Outcome = Outcome(outcome)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, errors.Join(ErrInvalidDetails, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return events, nil
}
