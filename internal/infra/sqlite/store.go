// Package sqlite is the embedded transactional backend for users and
// performance history.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"exam-quiz-service/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements both app.CredentialStore and app.PerformanceLog.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS performance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			timestamp_unix_nano INTEGER NOT NULL,
			score INTEGER NOT NULL CHECK (score >= 0),
			total INTEGER NOT NULL CHECK (total > 0),
			percentage REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_performance_username ON performance(username, id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, cred domain.Credential) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, password_hash, created_at_unix) VALUES (?, ?, ?)`,
		cred.Username, cred.PasswordHash, time.Now().UTC().Unix(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserExists
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (domain.Credential, error) {
	cred := domain.Credential{Username: username}
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username = ?`, username).Scan(&cred.PasswordHash)
	if err == sql.ErrNoRows {
		return domain.Credential{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Credential{}, err
	}
	return cred, nil
}

func (s *Store) Append(ctx context.Context, record domain.PerformanceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO performance (username, timestamp_unix_nano, score, total, percentage) VALUES (?, ?, ?, ?, ?)`,
		record.Username, record.Timestamp.UnixNano(), record.Score, record.Total, record.Percentage,
	)
	return err
}

func (s *Store) ByUser(ctx context.Context, username string) ([]domain.PerformanceRecord, error) {
	return s.query(ctx,
		`SELECT username, timestamp_unix_nano, score, total, percentage FROM performance WHERE username = ? ORDER BY id`,
		username,
	)
}

func (s *Store) All(ctx context.Context) ([]domain.PerformanceRecord, error) {
	return s.query(ctx, `SELECT username, timestamp_unix_nano, score, total, percentage FROM performance ORDER BY id`)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]domain.PerformanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PerformanceRecord
	for rows.Next() {
		var (
			r    domain.PerformanceRecord
			nano int64
		)
		if err := rows.Scan(&r.Username, &nano, &r.Score, &r.Total, &r.Percentage); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(0, nano).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
