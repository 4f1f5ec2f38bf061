// Package storage keeps the append-only activity log in sqlite. The log is
// an audit trail for uploads, downloads and deletes; file listings never
// come from here, the filesystem stays the source of truth.
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"smartdrive/internal/models"
)

// DB wraps the database connection with pool limits applied.
type DB struct {
	*sql.DB
}

// InitDB opens the activity database, enables WAL mode and creates the
// schema.
func InitDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	// WAL mode for better concurrency under parallel requests
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		client_ip TEXT,
		timestamp DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity(timestamp);
	`

	_, err := db.Exec(schema)
	return err
}

// LogActivity appends one entry to the activity log.
func (db *DB) LogActivity(action, path string, sizeBytes int64, clientIP string) error {
	query := `INSERT INTO activity (action, path, size_bytes, client_ip, timestamp)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := db.Exec(query, action, path, sizeBytes, clientIP, time.Now().UTC())
	return err
}

// RecentActivity retrieves the most recent entries, newest first.
func (db *DB) RecentActivity(limit int) ([]*models.Activity, error) {
	rows, err := db.Query(`SELECT id, action, path, size_bytes, client_ip, timestamp
	                        FROM activity ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Activity
	for rows.Next() {
		entry := &models.Activity{}
		var clientIP sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Path, &entry.SizeBytes, &clientIP, &entry.Timestamp); err != nil {
			log.Printf("Error scanning activity entry: %v", err)
			continue
		}
		entry.ClientIP = clientIP.String
		entries = append(entries, entry)
	}

	return entries, nil
}
