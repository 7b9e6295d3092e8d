package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/contriboard/contriboard/internal/domain"
	"github.com/contriboard/contriboard/internal/storage"
)

// postgresArchive implements the Archive interface for PostgreSQL
type postgresArchive struct {
	db *sql.DB
}

// NewPostgresArchive creates a new PostgreSQL archive instance
func NewPostgresArchive(connStr string) (storage.Archive, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	a := &postgresArchive{db: db}
	if err := a.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return a, nil
}

// Migrate runs database migrations
func (a *postgresArchive) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		org TEXT NOT NULL,
		repo TEXT NOT NULL,
		actor TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		timestamp TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_events_org_type_timestamp ON events(org, type, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`

	_, err := a.db.ExecContext(ctx, schema)
	return err
}

// SaveEvents saves a batch of events in one transaction
func (a *postgresArchive) SaveEvents(ctx context.Context, events []*domain.Event) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, type, org, repo, actor, avatar_url, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			org = EXCLUDED.org,
			repo = EXCLUDED.repo,
			actor = EXCLUDED.actor,
			avatar_url = EXCLUDED.avatar_url,
			timestamp = EXCLUDED.timestamp
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, event := range events {
		_, err = stmt.ExecContext(ctx,
			event.ID,
			string(event.Type),
			event.Org,
			event.Repo,
			event.Actor,
			event.AvatarURL,
			event.Timestamp,
			event.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetEvents retrieves events for re-aggregation
func (a *postgresArchive) GetEvents(ctx context.Context, filter storage.EventFilter) ([]*domain.Event, error) {
	query := `SELECT id, type, org, repo, actor, avatar_url, timestamp, created_at FROM events`

	var conds []string
	var args []interface{}
	appendCond := func(expr string, value interface{}) {
		args = append(args, value)
		conds = append(conds, strings.Replace(expr, "?", placeholder(len(args)), 1))
	}
	if filter.Org != "" {
		appendCond("org = ?", filter.Org)
	}
	if filter.Type != "" {
		appendCond("type = ?", string(filter.Type))
	}
	if !filter.Since.IsZero() {
		appendCond("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		appendCond("timestamp <= ?", filter.Until)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp"

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		var eventType string
		err := rows.Scan(&e.ID, &eventType, &e.Org, &e.Repo, &e.Actor, &e.AvatarURL, &e.Timestamp, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		e.Type = domain.EventType(eventType)
		events = append(events, &e)
	}

	return events, rows.Err()
}

// Organizations lists the organizations with archived events
func (a *postgresArchive) Organizations(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT org FROM events ORDER BY org`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []string
	for rows.Next() {
		var org string
		if err := rows.Scan(&org); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

// DeleteEvents drops an organization's events ahead of a fresh collection
func (a *postgresArchive) DeleteEvents(ctx context.Context, org string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM events WHERE org = $1`, org)
	return err
}

// Close closes the database connection
func (a *postgresArchive) Close() error {
	return a.db.Close()
}

// placeholder returns the positional parameter marker for index n
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
