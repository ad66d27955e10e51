package postgres

import (
	"context"
	"errors"

	"exam-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store implements app.CredentialStore and app.PerformanceLog on Postgres.
// Run Migrate before use.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateUser(ctx context.Context, cred domain.Credential) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING`,
		cred.Username, cred.PasswordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserExists
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (domain.Credential, error) {
	cred := domain.Credential{Username: username}
	err := s.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE username=$1`, username).Scan(&cred.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Credential{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Credential{}, err
	}
	return cred, nil
}

func (s *Store) Append(ctx context.Context, record domain.PerformanceRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO performance (username, recorded_at, score, total, percentage) VALUES ($1, $2, $3, $4, $5)`,
		record.Username, record.Timestamp, record.Score, record.Total, record.Percentage)
	return err
}

func (s *Store) ByUser(ctx context.Context, username string) ([]domain.PerformanceRecord, error) {
	return s.query(ctx,
		`SELECT username, recorded_at, score, total, percentage FROM performance WHERE username=$1 ORDER BY id`,
		username)
}

func (s *Store) All(ctx context.Context) ([]domain.PerformanceRecord, error) {
	return s.query(ctx, `SELECT username, recorded_at, score, total, percentage FROM performance ORDER BY id`)
}

func (s *Store) query(ctx context.Context, sql string, args ...interface{}) ([]domain.PerformanceRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PerformanceRecord
	for rows.Next() {
		var r domain.PerformanceRecord
		if err := rows.Scan(&r.Username, &r.Timestamp, &r.Score, &r.Total, &r.Percentage); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
