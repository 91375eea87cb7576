// Package database persists the submission audit log. Every forwarded
// form submission is recorded with its outcome so operators can inspect
// failures and the stats endpoint can report totals. Access tokens are
// never stored here.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

// Submission is one audit-log row for a processed form submission.
type Submission struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FormType  string    `json:"form_type"`
	LeadID    string    `json:"lead_id,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission status values.
const (
	StatusForwarded = "forwarded"
	StatusFailed    = "failed"
)

type Stats struct {
	TotalSubmissions  int `json:"total_submissions"`
	ForwardedLeads    int `json:"forwarded_leads"`
	FailedSubmissions int `json:"failed_submissions"`
}

func Init(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbWrapper := &DB{db}
	if err := dbWrapper.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return dbWrapper, nil
}

func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			form_type TEXT NOT NULL DEFAULT '',
			lead_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// RecordSubmission appends one audit-log row.
func (db *DB) RecordSubmission(sub *Submission) error {
	result, err := db.Exec(
		`INSERT INTO submissions (email, form_type, lead_id, status, error) VALUES (?, ?, ?, ?, ?)`,
		sub.Email, sub.FormType, sub.LeadID, sub.Status, sub.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		sub.ID = int(id)
	}

	return nil
}

// GetStats returns aggregate counters over the audit log.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow(
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM submissions`,
		StatusForwarded, StatusFailed,
	).Scan(&stats.TotalSubmissions, &stats.ForwardedLeads, &stats.FailedSubmissions)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	return stats, nil
}

// RecentSubmissions returns the newest audit-log rows, most recent first.
func (db *DB) RecentSubmissions(limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(
		`SELECT id, email, form_type, lead_id, status, error, created_at
		FROM submissions ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.FormType, &sub.LeadID, &sub.Status, &sub.Error, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
