package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditRepository defines the data access contract for audit log operations.
// All SQL lives in the concrete implementation.
type AuditRepository interface {
	// Log inserts a new audit entry into the database.
	Log(ctx context.Context, entry *AuditEntry) error

	// ListByEmail returns the most recent entries for an account, newest
	// first. Failed attempts carry no user ID, so accounts are keyed by email.
	ListByEmail(ctx context.Context, email string, limit int) ([]AuditEntry, error)

	// CountSince counts entries with the given action for an email since t.
	CountSince(ctx context.Context, email, action string, since time.Time) (int, error)
}

// auditRepository implements AuditRepository with MariaDB queries.
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log inserts a new audit entry. The details map is serialized to JSON
// before storage. Nil details are stored as SQL NULL.
func (r *auditRepository) Log(ctx context.Context, entry *AuditEntry) error {
	query := `INSERT INTO audit_log (user_id, email, action, ip, user_agent, details, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var userID sql.NullString
	if entry.UserID != "" {
		userID = sql.NullString{String: entry.UserID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		userID, entry.Email, entry.Action,
		entry.IP, entry.UserAgent,
		detailsJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting audit entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// ListByEmail returns an account's entries ordered by most recent first.
func (r *auditRepository) ListByEmail(ctx context.Context, email string, limit int) ([]AuditEntry, error) {
	query := `SELECT id, user_id, email, action, ip, user_agent, details, created_at
	          FROM audit_log
	          WHERE email = ?
	          ORDER BY created_at DESC, id DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

// CountSince counts matching entries created at or after since.
func (r *auditRepository) CountSince(ctx context.Context, email, action string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE email = ? AND action = ? AND created_at >= ?`,
		email, action, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting audit entries: %w", err)
	}
	return count, nil
}

// scanAuditRows scans rows from an audit_log query into AuditEntry slices.
// Expects columns: id, user_id, email, action, ip, user_agent, details,
// created_at.
func scanAuditRows(rows *sql.Rows) ([]AuditEntry, error) {
	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var userID, detailsJSON sql.NullString
		if err := rows.Scan(
			&e.ID, &userID, &e.Email, &e.Action,
			&e.IP, &e.UserAgent, &detailsJSON, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.UserID = userID.String

		// Deserialize JSON details if present.
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				// Non-fatal: don't break the feed over one bad row.
				e.Details = map[string]any{"_parse_error": "invalid JSON"}
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}
