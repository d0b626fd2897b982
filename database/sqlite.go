package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB implements the Database interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %v", err)
	}

	// Create tables if they don't exist
	if err := initTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %v", err)
	}

	return &SQLiteDB{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS recordings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			camera TEXT NOT NULL,
			recording_id TEXT NOT NULL,
			date TEXT,
			timestamp TEXT,
			duration TEXT,
			event_type TEXT,
			path TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recordings_camera ON recordings (camera, created_at)
	`)
	return err
}

// InsertRecording appends a history row for a downloaded clip
func (s *SQLiteDB) InsertRecording(rec Recording) error {
	_, err := s.db.Exec(`
		INSERT INTO recordings (
			camera, recording_id, date, timestamp, duration, event_type, path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Camera,
		rec.RecordingID,
		rec.Date,
		rec.Timestamp,
		rec.Duration,
		rec.EventType,
		rec.Path,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recording: %v", err)
	}
	return nil
}

// ListRecordings returns history rows newest-first, optionally filtered by
// camera name
func (s *SQLiteDB) ListRecordings(camera string, limit, offset int) ([]Recording, error) {
	query := `
		SELECT id, camera, recording_id, date, timestamp, duration, event_type, path, created_at
		FROM recordings
	`
	args := []interface{}{}
	if camera != "" {
		query += " WHERE camera = ?"
		args = append(args, camera)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %v", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, *rec)
	}
	return recordings, rows.Err()
}

// LatestRecording returns the most recent history row for a camera, or nil
// when the camera has no history
func (s *SQLiteDB) LatestRecording(camera string) (*Recording, error) {
	rows, err := s.db.Query(`
		SELECT id, camera, recording_id, date, timestamp, duration, event_type, path, created_at
		FROM recordings
		WHERE camera = ?
		ORDER BY created_at DESC LIMIT 1
	`, camera)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest recording: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecording(rows)
}

// CountRecordings returns the number of history rows, optionally filtered by
// camera name
func (s *SQLiteDB) CountRecordings(camera string) (int, error) {
	query := "SELECT COUNT(*) FROM recordings"
	args := []interface{}{}
	if camera != "" {
		query += " WHERE camera = ?"
		args = append(args, camera)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recordings: %v", err)
	}
	return count, nil
}

// Close closes the underlying database handle
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func scanRecording(rows *sql.Rows) (*Recording, error) {
	var rec Recording
	err := rows.Scan(
		&rec.ID,
		&rec.Camera,
		&rec.RecordingID,
		&rec.Date,
		&rec.Timestamp,
		&rec.Duration,
		&rec.EventType,
		&rec.Path,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan recording row: %v", err)
	}
	return &rec, nil
}
